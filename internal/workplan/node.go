package workplan

import (
	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
)

// Kind discriminates the tagged Node variant (spec §3.1).
type Kind int

const (
	KindOperation Kind = iota
	KindConstant
	KindClosure
)

func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "operation"
	case KindConstant:
		return "constant"
	case KindClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Operation is an operator applied to a mapping of argument-key to NodeId.
// Argument keys are either positional decimal strings ("0","1",...) or
// semantic names set by the reducer ("bag","closure" on dask_map). The
// registry's argument-name mapping ("0" -> "left", ...) is applied to the
// resolved values at call time and does not change these keys.
type Operation struct {
	Operator  string
	Arguments map[string]hashid.NodeID
}

// Constant wraps a literal or pre-computed value.
type Constant struct {
	Value interface{}
}

// Closure is a first-class value capturing a function body and the
// environment it closed over, hashed by body shape and captured ids never
// source text (spec §4.1, §9).
type Closure struct {
	Parameter   string
	Body        ast.Expr
	CapturedEnv *Env
}

// Node is the tagged variant stored in WorkPlan.nodes, keyed by its own id.
type Node struct {
	ID        hashid.NodeID
	Kind      Kind
	Operation *Operation
	Constant  *Constant
	Closure   *Closure
}

// GoalKind discriminates print from save.
type GoalKind int

const (
	GoalPrint GoalKind = iota
	GoalSave
)

func (k GoalKind) String() string {
	if k == GoalSave {
		return "save"
	}
	return "print"
}

// Goal is a post-execution action pinned to a node id (spec §3.1).
type Goal struct {
	Kind       GoalKind
	Target     hashid.NodeID
	NameOrPath string
}
