package store_test

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/voxlogica-project/voxlogica-core/internal/store"
)

func open(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "store.db"), 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := open(t)
	if err := s.Put("n1", map[string]interface{}{"v": 42.0}, true); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := s.Get("n1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	m, ok := v.(map[string]interface{})
	if !ok || m["v"] != 42.0 {
		t.Fatalf("unexpected value: %#v", v)
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	s := open(t)
	_, ok, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss")
	}
}

func TestNonSerializableValueSurvivesCacheOnly(t *testing.T) {
	s := open(t)
	closure := func() {}
	if err := s.Put("closure-node", closure, false); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := s.Get("closure-node")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected the in-memory cache to serve a non-serializable value")
	}
	if v == nil {
		t.Fatal("expected a non-nil value")
	}
}

func TestComputeIfAbsentRunsOnce(t *testing.T) {
	s := open(t)
	var calls int64
	const workers = 16

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.ComputeIfAbsent("shared", func() (interface{}, bool, error) {
				atomic.AddInt64(&calls, 1)
				return 7.0, true, nil
			})
			if err != nil {
				t.Errorf("ComputeIfAbsent: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected compute to run exactly once, ran %d times", got)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "store.db"), 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Put("a", 1.0, false); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := s.Put("b", 2.0, false); err != nil {
		t.Fatalf("Put b: %v", err)
	}
	// "a" is non-serializable and was evicted from the soft-capped cache,
	// so it must no longer be retrievable.
	if _, ok, _ := s.Get("a"); ok {
		t.Fatal("expected \"a\" to have been evicted")
	}
	if _, ok, _ := s.Get("b"); !ok {
		t.Fatal("expected \"b\" to remain cached")
	}
}
