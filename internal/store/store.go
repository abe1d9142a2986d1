// Package store implements the Store (C2): a durable, content-addressed
// value cache backed by bbolt, the same embedded single-file WAL engine the
// teacher's db/bolt package wraps, generalized here from a generic
// bucket/JSON helper into a NodeId-keyed value store with an in-memory
// front for non-serializable values and single-flight deduplication of
// concurrent recomputation (spec §4.2).
package store

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/singleflight"

	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
)

var nodesBucket = []byte("nodes")

// Store is the durable+in-memory value cache keyed by hashid.NodeID. All
// methods are safe for concurrent use.
type Store struct {
	db    *bolt.DB
	cache *lruCache
	group singleflight.Group
}

// Open opens (creating if absent) a bbolt-backed store at path. cacheSoftCap
// bounds the in-memory front's size (spec §4.2, §5); a value of 0 uses
// defaultCacheSoftCap.
func Open(path string, cacheSoftCap int) (*Store, error) {
	if cacheSoftCap <= 0 {
		cacheSoftCap = defaultCacheSoftCap
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, vlerr.Wrap(vlerr.StoreError, err, "open store at %q", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(nodesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, vlerr.Wrap(vlerr.StoreError, err, "initialize nodes bucket")
	}
	return &Store{db: db, cache: newLRUCache(cacheSoftCap)}, nil
}

// Close releases the underlying bbolt file handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return vlerr.Wrap(vlerr.StoreError, err, "close store")
	}
	return nil
}

// Get returns the value for id, checking the in-memory cache first and
// falling back to the durable bucket. ok is false if id has never been
// stored.
func (s *Store) Get(id hashid.NodeID) (value interface{}, ok bool, err error) {
	if v, hit := s.cache.get(id); hit {
		return v, true, nil
	}

	var raw []byte
	viewErr := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(nodesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		raw = append([]byte(nil), data...)
		return nil
	})
	if viewErr != nil {
		return nil, false, vlerr.Wrap(vlerr.StoreError, viewErr, "read node %s", id)
	}
	if raw == nil {
		return nil, false, nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, vlerr.Wrap(vlerr.SerializationError, err, "decode node %s", id)
	}
	s.cache.put(id, v)
	return v, true, nil
}

// Put stores value under id. When serializable is true the value is also
// written durably to bbolt; non-serializable values (closures, open bag
// iterators) live only in the in-memory front and are recomputed from the
// WorkPlan on a cold start, per spec §4.2's "non-serializable values never
// reach the durable layer".
func (s *Store) Put(id hashid.NodeID, value interface{}, serializable bool) error {
	s.cache.put(id, value)
	if !serializable {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return vlerr.Wrap(vlerr.SerializationError, err, "encode node %s", id)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(nodesBucket).Put([]byte(id), raw)
	}); err != nil {
		return vlerr.Wrap(vlerr.StoreError, err, "write node %s", id)
	}
	return nil
}

// ComputeIfAbsent returns the stored value for id, computing and storing it
// via compute if absent. compute reports, alongside the value itself,
// whether that value is durable-serializable — the decision is per-node
// (e.g. a Bag-producing node answers false), not a constant, so that
// non-serializable results never reach bbolt while everything else does
// (spec §4.2's "non-serializable values never reach the durable layer").
// Concurrent calls for the same id are deduplicated by a singleflight.Group,
// so compute runs at most once regardless of how many workers demand id
// simultaneously (spec §4.2/§5's single-flight lock table,
// "mark_running"/"AlreadyRunning").
func (s *Store) ComputeIfAbsent(id hashid.NodeID, compute func() (value interface{}, serializable bool, err error)) (interface{}, error) {
	if v, ok, err := s.Get(id); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	v, err, _ := s.group.Do(string(id), func() (interface{}, error) {
		if v, ok, err := s.Get(id); err != nil {
			return nil, err
		} else if ok {
			return v, nil
		}
		computed, serializable, err := compute()
		if err != nil {
			return nil, err
		}
		if err := s.Put(id, computed, serializable); err != nil {
			return nil, err
		}
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
