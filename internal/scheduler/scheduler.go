// Package scheduler implements the Scheduler (C7): a demand-driven,
// memoized evaluator over a WorkPlan. Rather than a pre-built topological
// batch (which can't represent dask_map's per-bag-element bodies — those
// nodes don't exist until an element is actually produced), Eval recurses
// from each goal down to its dependencies, relying on the Store's
// single-flight ComputeIfAbsent for both memoization of shared
// subexpressions and deduplication of concurrent recomputation of the same
// node id (spec §4.6, §5). Concurrency across a node's dependencies and
// across bag elements comes from golang.org/x/sync/errgroup, in the style
// of the teacher corpus's errgroup-based fan-out (e.g. the parallel
// pre-fetch stage of a request pipeline); actual primitive invocation is
// additionally bounded by a worker semaphore sized to EngineConfig's worker
// pool size.
package scheduler

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
	"github.com/voxlogica-project/voxlogica-core/internal/metrics"
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/store"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
	"github.com/voxlogica-project/voxlogica-core/internal/workplan"
)

const daskMapOperator = "dask_map"

// Scheduler executes a WorkPlan's goals against a Registry and a Store.
type Scheduler struct {
	reg     *registry.Registry
	st      *store.Store
	metrics *metrics.Metrics
	sem     chan struct{}
}

// New returns a Scheduler bounding primitive invocation concurrency to
// workerPoolSize (0 means unbounded). m may be nil.
func New(reg *registry.Registry, st *store.Store, workerPoolSize int, m *metrics.Metrics) *Scheduler {
	s := &Scheduler{reg: reg, st: st, metrics: m}
	if workerPoolSize > 0 {
		s.sem = make(chan struct{}, workerPoolSize)
	}
	return s
}

// Run evaluates every goal in wp and returns a NodeId → value table covering
// each goal's target, suitable for internal/goals.Handler.Run. Each call is
// tagged with a fresh RunID, a process-unique UUID used only to correlate
// this run's log lines; it never participates in content addressing and
// never reaches a NodeId.
func (s *Scheduler) Run(ctx context.Context, wp *workplan.WorkPlan) (map[hashid.NodeID]registry.Value, error) {
	runID := uuid.New().String()

	// Force-drain whatever's been queued via QueueExpansion so the graph is
	// in its fully-reduced static shape before goal evaluation begins
	// (spec §4.5); dask_map's per-element bodies are compiled later, on
	// demand, via WorkPlan.Expand, not through this drain.
	if _, err := wp.Operations(); err != nil {
		return nil, err
	}

	goalList := wp.Goals()
	log.Printf("run %s: starting, %d goal(s)", runID, len(goalList))
	results := make(map[hashid.NodeID]registry.Value, len(goalList))

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, goal := range goalList {
		goal := goal
		g.Go(func() error {
			v, err := s.Eval(gctx, wp, goal.Target)
			if err != nil {
				return err
			}
			mu.Lock()
			results[goal.Target] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("run %s: failed: %v", runID, err)
		return nil, err
	}
	log.Printf("run %s: completed, %d result(s)", runID, len(results))
	return results, nil
}

// Eval resolves id to a value, computing it (and, recursively, whatever it
// depends on) if it isn't already in the Store. Concurrent Eval calls for
// the same id are deduplicated by the Store's single-flight group.
func (s *Scheduler) Eval(ctx context.Context, wp *workplan.WorkPlan, id hashid.NodeID) (registry.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, vlerr.Wrap(vlerr.Cancelled, err, "evaluating node %s", id)
	}

	return s.st.ComputeIfAbsent(id, func() (interface{}, bool, error) {
		node, ok := wp.Get(id)
		if !ok {
			return nil, false, vlerr.ForNode(vlerr.DependencyFailed, string(id), "node not found in workplan")
		}

		switch node.Kind {
		case workplan.KindConstant:
			return node.Constant.Value, true, nil

		case workplan.KindClosure:
			// Closures are never evaluated to a Value directly; dask_map
			// reads the Closure node itself via wp.Get. Reaching here means
			// a closure leaked into value position some other way.
			return nil, false, vlerr.ForNode(vlerr.DependencyFailed, string(id), "closure node has no evaluable value")

		case workplan.KindOperation:
			var v registry.Value
			var err error
			if node.Operation.Operator == daskMapOperator {
				v, err = s.evalDaskMap(ctx, wp, node)
			} else {
				v, err = s.evalOperation(ctx, wp, node)
			}
			if err != nil {
				return nil, false, err
			}
			// Bags (dask_map's own result, or any primitive that produces
			// one, e.g. range/readdir) stay in-memory only: spec §4.2 keeps
			// non-serializable values off the durable layer, and bags are
			// the one Value shape a warm-store rerun can't safely round-trip
			// through JSON back into a registry.Bag.
			_, isBag := v.(registry.Bag)
			return v, !isBag, nil

		default:
			return nil, false, vlerr.ForNode(vlerr.DependencyFailed, string(id), "unknown node kind")
		}
	})
}

func (s *Scheduler) evalOperation(ctx context.Context, wp *workplan.WorkPlan, node *workplan.Node) (registry.Value, error) {
	args := make(map[string]registry.Value, len(node.Operation.Arguments))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for key, argID := range node.Operation.Arguments {
		key, argID := key, argID
		g.Go(func() error {
			v, err := s.Eval(gctx, wp, argID)
			if err != nil {
				return err
			}
			mu.Lock()
			args[key] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	callable, err := s.reg.Resolve(node.Operation.Operator, wp.Imports())
	if err != nil {
		return nil, err
	}
	mapped := s.reg.MapArgs(node.Operation.Operator, args)

	s.acquire()
	defer s.release()
	s.metrics.WorkerStarted()
	defer s.metrics.WorkerFinished()
	s.metrics.Dispatched()
	s.metrics.PrimitiveInvoked(node.Operation.Operator)

	result, err := callable(mapped)
	if err != nil {
		s.metrics.PrimitiveFailed(node.Operation.Operator)
		return nil, vlerr.Wrap(vlerr.PrimitiveFailure, err, "primitive %q", node.Operation.Operator)
	}
	return result, nil
}

// evalDaskMap evaluates the bag argument, then compiles and evaluates the
// closure's body once per bag element, via WorkPlan.Expand — the lazy
// expansion spec §4.6 describes, applied exactly as many times as there are
// elements, never upfront.
func (s *Scheduler) evalDaskMap(ctx context.Context, wp *workplan.WorkPlan, node *workplan.Node) (registry.Value, error) {
	bagID, ok := node.Operation.Arguments["bag"]
	if !ok {
		return nil, vlerr.ForNode(vlerr.DependencyFailed, string(node.ID), "dask_map missing bag argument")
	}
	closureID, ok := node.Operation.Arguments["closure"]
	if !ok {
		return nil, vlerr.ForNode(vlerr.DependencyFailed, string(node.ID), "dask_map missing closure argument")
	}

	bagVal, err := s.Eval(ctx, wp, bagID)
	if err != nil {
		return nil, err
	}
	bag, ok := bagVal.(registry.Bag)
	if !ok {
		return nil, vlerr.ForNode(vlerr.DependencyFailed, string(node.ID), "dask_map bag argument is not a Bag")
	}

	closureNode, ok := wp.Get(closureID)
	if !ok || closureNode.Kind != workplan.KindClosure {
		return nil, vlerr.ForNode(vlerr.DependencyFailed, string(node.ID), "dask_map closure argument is not a Closure")
	}

	results := make([]registry.Value, len(bag.Items))
	g, gctx := errgroup.WithContext(ctx)
	for i, elem := range bag.Items {
		i, elem := i, elem
		g.Go(func() error {
			elemID := wp.AddConstant(elem)
			env := closureNode.Closure.CapturedEnv.Extend(closureNode.Closure.Parameter, workplan.ValueBinding(elemID))
			bodyID, err := wp.Expand(closureNode.Closure.Body, env)
			if err != nil {
				return err
			}
			v, err := s.Eval(gctx, wp, bodyID)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return registry.Bag{Items: results}, nil
}

func (s *Scheduler) acquire() {
	if s.sem != nil {
		s.sem <- struct{}{}
	}
}

func (s *Scheduler) release() {
	if s.sem != nil {
		<-s.sem
	}
}
