// Package registry implements the Primitive Registry (C3): an instance
// registry (there is no package-level global one) for resolving ImgQL
// operator names to callables, in the shape of the teacher's decorator registry
// (core/decorator/registry.go), generalized from decorator roles to
// namespace-qualified operator resolution.
package registry

import (
	"fmt"
	"sync"

	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
)

// Value is the runtime representation of anything that can flow through a
// primitive call: numbers, booleans, strings, opaque blobs, bags, and
// closure handles are all passed and returned as Value.
type Value = interface{}

// Callable is the uniform primitive signature (spec §4.3, §9): a mapping
// from argument-key to resolved value, returning a single value or an error.
type Callable func(args map[string]Value) (Value, error)

// Namespace provides a set of named callables through Primitives, either
// as a fixed map (see StaticNamespace) or from any other implementing type.
type Namespace interface {
	Primitives() map[string]Callable
}

// StaticNamespace is the common case: a fixed, pre-built set of callables.
type StaticNamespace map[string]Callable

func (n StaticNamespace) Primitives() map[string]Callable { return n }

const defaultNamespaceName = "default"

// reservedGoalNames are never accepted as primitive names: spec §9's open
// question is resolved here by rejecting registration outright, since this
// spec treats print/save strictly as goals, never as cached computations.
var reservedGoalNames = map[string]bool{"print": true, "save": true}

// Registry holds registered namespaces and resolves operator names against
// them (sync.RWMutex-guarded map, RegisterNamespace/Resolve — the same
// shape as the teacher's decorator registry).
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]Namespace
	argNames   map[string][]string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		namespaces: make(map[string]Namespace),
		argNames:   make(map[string][]string),
	}
}

// RegisterNamespace adds (or replaces) a namespace under name. Collisions
// of primitive names *within* a single namespace are rejected at load time
// (spec §4.3); cross-namespace collisions are resolved later, at Resolve
// time, by import order.
func (r *Registry) RegisterNamespace(name string, ns Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for primName := range ns.Primitives() {
		if reservedGoalNames[primName] {
			return vlerr.New(vlerr.ImportError,
				"namespace %q: %q is a reserved goal name and cannot be registered as a primitive", name, primName)
		}
		if seen[primName] {
			return vlerr.New(vlerr.ImportError,
				"namespace %q: duplicate primitive name %q", name, primName)
		}
		seen[primName] = true
	}
	r.namespaces[name] = ns
	return nil
}

// HasNamespace reports whether name has been registered.
func (r *Registry) HasNamespace(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.namespaces[name]
	return ok
}

// RegisterArgNames declares the positional-to-semantic argument mapping for
// a well-known operator symbol, e.g. RegisterArgNames("+", "left", "right")
// maps {"0": a, "1": b} to {"left": a, "right": b} (spec §4.3).
func (r *Registry) RegisterArgNames(operator string, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.argNames[operator] = names
}

// MapArgs applies the argument-name mapping registered for operator, if
// any; otherwise it returns args unchanged.
func (r *Registry) MapArgs(operator string, args map[string]Value) map[string]Value {
	r.mu.RLock()
	names, ok := r.argNames[operator]
	r.mu.RUnlock()
	if !ok {
		return args
	}
	mapped := make(map[string]Value, len(args))
	for i, name := range names {
		key := fmt.Sprintf("%d", i)
		if v, present := args[key]; present {
			mapped[name] = v
			continue
		}
	}
	// Carry over any argument keys the mapping didn't claim (e.g. already
	// semantic keys supplied directly).
	for k, v := range args {
		if _, claimed := mapped[k]; !claimed {
			if _, wasPositional := positionalIndex(names, k); !wasPositional {
				mapped[k] = v
			}
		}
	}
	return mapped
}

func positionalIndex(names []string, key string) (int, bool) {
	for i := range names {
		if fmt.Sprintf("%d", i) == key {
			return i, true
		}
	}
	return 0, false
}

// ImportSet is the per-WorkPlan set of imported namespaces (spec §4.3: "a
// set, not a list"); it tracks import order because resolution order
// matters ("default" first, then imports in the order they were added).
type ImportSet struct {
	mu    sync.Mutex
	order []string
	seen  map[string]bool
}

// NewImportSet returns an empty ImportSet.
func NewImportSet() *ImportSet {
	return &ImportSet{seen: make(map[string]bool)}
}

// Add records namespace as imported; repeated adds of the same name are a
// no-op (invariant 6, spec §8: importing k times has the same effect as once).
func (s *ImportSet) Add(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.order = append(s.order, name)
}

// Order returns imported namespace names in import order.
func (s *ImportSet) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns imported namespace names in lexicographic order, used by
// WorkPlan JSON serialization (spec §4.5).
func (s *ImportSet) Sorted() []string {
	out := s.Order()
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Resolve finds the callable for operator, honoring the resolution order of
// spec §4.3: a dotted name is looked up directly in its namespace; an
// unqualified name is searched in "default" first, then each namespace in
// imports in import order, first match wins.
func (r *Registry) Resolve(operator string, imports *ImportSet) (Callable, error) {
	if ns, name, qualified := splitQualified(operator); qualified {
		return r.resolveIn(ns, name)
	}

	r.mu.RLock()
	defaultNS, hasDefault := r.namespaces[defaultNamespaceName]
	r.mu.RUnlock()
	if hasDefault {
		if c, ok := defaultNS.Primitives()[operator]; ok {
			return c, nil
		}
	}

	if imports != nil {
		for _, ns := range imports.Order() {
			if ns == defaultNamespaceName {
				continue
			}
			r.mu.RLock()
			namespace, ok := r.namespaces[ns]
			r.mu.RUnlock()
			if !ok {
				continue
			}
			if c, ok := namespace.Primitives()[operator]; ok {
				return c, nil
			}
		}
	}

	return nil, vlerr.New(vlerr.UnknownOperator, "unknown operator %q", operator)
}

func (r *Registry) resolveIn(namespace, name string) (Callable, error) {
	r.mu.RLock()
	ns, ok := r.namespaces[namespace]
	r.mu.RUnlock()
	if !ok {
		return nil, vlerr.New(vlerr.UnknownOperator, "namespace %q is not registered", namespace)
	}
	c, ok := ns.Primitives()[name]
	if !ok {
		return nil, vlerr.New(vlerr.UnknownOperator, "unknown operator %q in namespace %q", name, namespace)
	}
	return c, nil
}

func splitQualified(operator string) (ns, name string, ok bool) {
	for i := len(operator) - 1; i >= 0; i-- {
		if operator[i] == '.' {
			return operator[:i], operator[i+1:], true
		}
	}
	return "", operator, false
}
