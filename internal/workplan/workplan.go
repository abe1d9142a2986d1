// Package workplan implements the content-addressed DAG (C6) and the lazy
// expander (C5) that owns it, per spec §4.5: nodes, goals, and imported
// namespaces, plus a one-shot-guarded expansion of deferred reductions.
package workplan

import (
	"sort"
	"strconv"
	"sync"

	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
	"github.com/voxlogica-project/voxlogica-core/internal/invariant"
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
)

// PendingExpansion is a deferred reduction unit queued by the reducer: an
// expression to reduce under an environment, once the WorkPlan's operations
// are actually demanded (spec §3.1, §4.5).
type PendingExpansion struct {
	Expr ast.Expr
	Env  *Env
}

// ExpansionFunc re-enters the reducer to compile a deferred expression.
// internal/reduce supplies the concrete implementation; workplan only holds
// a function value so the two packages don't import each other.
type ExpansionFunc func(wp *WorkPlan, expr ast.Expr, env *Env) (hashid.NodeID, error)

// WorkPlan is the content-addressed DAG built by the Reducer and consumed
// by the Scheduler. All exported methods are safe for concurrent use.
type WorkPlan struct {
	mu      sync.Mutex
	nodes   map[hashid.NodeID]*Node
	goals   []Goal
	imports *registry.ImportSet
	pending []PendingExpansion
	expand  ExpansionFunc
}

// New returns an empty WorkPlan. expand is invoked to compile entries
// queued with QueueExpansion when Operations() is first called.
func New(expand ExpansionFunc) *WorkPlan {
	return &WorkPlan{
		nodes:   make(map[hashid.NodeID]*Node),
		imports: registry.NewImportSet(),
		expand:  expand,
	}
}

// Imports returns the workplan's imported-namespaces set.
func (wp *WorkPlan) Imports() *registry.ImportSet { return wp.imports }

// AddConstant inserts a ConstantValue node if absent and returns its id.
// Repeated calls for an equal value return the existing id without
// mutation (invariant 2, spec §3.2).
func (wp *WorkPlan) AddConstant(value interface{}) hashid.NodeID {
	id := hashid.Constant(value)
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if _, exists := wp.nodes[id]; !exists {
		wp.nodes[id] = &Node{ID: id, Kind: KindConstant, Constant: &Constant{Value: value}}
	}
	return id
}

// AddOperation inserts an Operation node if absent and returns its id.
// Every argument id must already exist in nodes (acyclicity invariant 3,
// spec §3.2) — violating this is a reducer bug, not a user error, hence the
// invariant panic rather than a returned error.
func (wp *WorkPlan) AddOperation(operator string, args map[string]hashid.NodeID) hashid.NodeID {
	id := hashid.Operation(operator, args)
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if _, exists := wp.nodes[id]; exists {
		return id
	}
	for key, argID := range args {
		_, ok := wp.nodes[argID]
		invariant.Invariant(ok, "operation %q argument %q (id %s) must already exist in nodes", operator, key, argID)
	}
	argsCopy := make(map[string]hashid.NodeID, len(args))
	for k, v := range args {
		argsCopy[k] = v
	}
	wp.nodes[id] = &Node{ID: id, Kind: KindOperation, Operation: &Operation{Operator: operator, Arguments: argsCopy}}
	return id
}

// AddClosure inserts a ClosureValue node if absent and returns its id. The
// id hashes the parameter name, the body's structural shape, and the
// captured environment's value bindings under their current ids — never
// source text (spec §4.1, §9).
func (wp *WorkPlan) AddClosure(parameter string, body ast.Expr, capturedEnv *Env) hashid.NodeID {
	envImage := make(map[string]hashid.NodeID)
	for _, name := range capturedEnv.Names() {
		b, _ := capturedEnv.Lookup(name)
		if b.IsValue {
			envImage[name] = b.Value
		}
	}
	id := hashid.Closure(parameter, FingerprintExpr(body), envImage)
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if _, exists := wp.nodes[id]; !exists {
		wp.nodes[id] = &Node{ID: id, Kind: KindClosure, Closure: &Closure{Parameter: parameter, Body: body, CapturedEnv: capturedEnv}}
	}
	return id
}

// Get returns the node for id, if it exists.
func (wp *WorkPlan) Get(id hashid.NodeID) (*Node, bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	n, ok := wp.nodes[id]
	return n, ok
}

// AddGoal appends a goal in program order.
func (wp *WorkPlan) AddGoal(kind GoalKind, target hashid.NodeID, nameOrPath string) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.goals = append(wp.goals, Goal{Kind: kind, Target: target, NameOrPath: nameOrPath})
}

// Goals returns the goal list in insertion order.
func (wp *WorkPlan) Goals() []Goal {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	out := make([]Goal, len(wp.goals))
	copy(out, wp.goals)
	return out
}

// QueueExpansion defers reducing expr under env until Operations() is
// called, per spec §4.5.
func (wp *WorkPlan) QueueExpansion(expr ast.Expr, env *Env) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.pending = append(wp.pending, PendingExpansion{Expr: expr, Env: env})
}

// Operations forces expansion of whatever is queued and returns every node
// of kind Operation. Expansion is idempotent: nodes are content-addressed,
// so re-expanding an already-produced subexpression returns the existing id
// without mutation (invariant 2), which is what lets this be safe to call
// more than once — e.g. by the Scheduler at the start of every Run. A
// dask_map closure's per-element bodies do not go through this queue; the
// Scheduler compiles them with Expand.
func (wp *WorkPlan) Operations() (map[hashid.NodeID]*Node, error) {
	if err := wp.drainPending(); err != nil {
		return nil, err
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	out := make(map[hashid.NodeID]*Node)
	for id, n := range wp.nodes {
		if n.Kind == KindOperation {
			out[id] = n
		}
	}
	return out, nil
}

// Expand directly compiles expr under env by re-entering the reducer,
// bypassing the pending queue. The Scheduler uses this to compile a
// dask_map closure body once per bag element as elements are discovered at
// execution time (spec §4.6); each call is an independent, content-addressed
// insert (invariant 2), so concurrent calls for different elements of the
// same bag are safe without additional locking.
func (wp *WorkPlan) Expand(expr ast.Expr, env *Env) (hashid.NodeID, error) {
	return wp.expand(wp, expr, env)
}

func (wp *WorkPlan) drainPending() error {
	for {
		wp.mu.Lock()
		if len(wp.pending) == 0 {
			wp.mu.Unlock()
			return nil
		}
		batch := wp.pending
		wp.pending = nil
		wp.mu.Unlock()

		for _, pe := range batch {
			if _, err := wp.expand(wp, pe.Expr, pe.Env); err != nil {
				return err
			}
		}
	}
}

// Nodes returns a snapshot of every node currently in the workplan, without
// forcing expansion.
func (wp *WorkPlan) Nodes() map[hashid.NodeID]*Node {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	out := make(map[hashid.NodeID]*Node, len(wp.nodes))
	for k, v := range wp.nodes {
		out[k] = v
	}
	return out
}

// FingerprintExpr produces a deterministic structural encoding of an AST
// expression, used to hash closure bodies by shape rather than source text
// (spec §4.1). It deliberately ignores Position so that identical logic
// at different source locations still hashes identically.
func FingerprintExpr(e ast.Expr) []byte {
	var buf []byte
	fingerprintInto(&buf, e)
	return buf
}

func fingerprintInto(buf *[]byte, e ast.Expr) {
	switch n := e.(type) {
	case ast.NumberLit:
		*buf = append(*buf, 'N')
		*buf = append(*buf, []byte(strconv.FormatInt(n.Int, 10))...)
		*buf = append(*buf, []byte(strconv.FormatFloat(n.Float, 'g', -1, 64))...)
	case ast.BoolLit:
		*buf = append(*buf, 'B')
		if n.Value {
			*buf = append(*buf, '1')
		} else {
			*buf = append(*buf, '0')
		}
	case ast.StringLit:
		*buf = append(*buf, 'S')
		*buf = append(*buf, []byte(n.Value)...)
	case ast.Identifier:
		*buf = append(*buf, 'I')
		*buf = append(*buf, []byte(n.Namespace)...)
		*buf = append(*buf, 0)
		*buf = append(*buf, []byte(n.Name)...)
	case ast.Application:
		*buf = append(*buf, 'A')
		fingerprintInto(buf, n.Function)
		*buf = append(*buf, []byte(strconv.Itoa(len(n.Arguments)))...)
		for _, arg := range n.Arguments {
			fingerprintInto(buf, arg)
		}
	case ast.Let:
		*buf = append(*buf, 'L')
		*buf = append(*buf, []byte(n.Name)...)
		fingerprintInto(buf, n.Value)
		if n.Body != nil {
			fingerprintInto(buf, n.Body)
		}
	case ast.For:
		*buf = append(*buf, 'F')
		*buf = append(*buf, []byte(n.Variable)...)
		fingerprintInto(buf, n.Iterable)
		fingerprintInto(buf, n.Body)
	default:
		invariant.Invariant(false, "unreachable AST expression kind in fingerprint: %T", e)
	}
}

// toNodeJSON and the JSON shape types live in serialize.go; sort helpers
// below are shared with it.
func sortedKeys(m map[string]hashid.NodeID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
