package workplan

import (
	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
)

// FuncTemplate is an unreduced function declaration: parameters and an AST
// body, bound to a name in an Env until applied or captured (spec §3.1).
// CapturedEnv is the environment visible at the point the declaration was
// made, not at the point it's later referenced — this is what makes
// reduction of its body capture-correct regardless of how much the
// surrounding scope has been extended by the time the function is called.
type FuncTemplate struct {
	Parameters  []string
	Body        ast.Expr
	CapturedEnv *Env
}

// Binding is either a resolved NodeId (a value already reduced into the
// WorkPlan) or a function template awaiting application.
type Binding struct {
	IsValue  bool
	Value    hashid.NodeID
	Template *FuncTemplate
}

// ValueBinding constructs a Binding that names an already-reduced value.
func ValueBinding(id hashid.NodeID) Binding { return Binding{IsValue: true, Value: id} }

// TemplateBinding constructs a Binding that names a function template.
func TemplateBinding(t *FuncTemplate) Binding { return Binding{Template: t} }

// Env is an immutable, persistent environment: a singly-linked chain of
// (name, binding) frames. Extend never mutates the receiver, matching
// spec §9's "mutable environments replaced by persistent maps" — closures
// that capture an Env keep seeing exactly the bindings visible when they
// captured it, even as the defining scope keeps extending.
type Env struct {
	parent  *Env
	name    string
	binding Binding
}

// Empty returns the environment with no bindings.
func Empty() *Env { return nil }

// Extend returns a new environment with name bound to binding, shadowing
// any existing binding of name; the receiver is left unmodified.
func (e *Env) Extend(name string, binding Binding) *Env {
	return &Env{parent: e, name: name, binding: binding}
}

// Lookup searches from the innermost frame outward, so the most recent
// Extend for a name wins (parameters shadow captures, spec §4.4).
func (e *Env) Lookup(name string) (Binding, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.binding, true
		}
	}
	return Binding{}, false
}

// Names returns every bound name visible from e, innermost first, without
// duplicates — used to build a ClosureValue's captured-environment image.
func (e *Env) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for cur := e; cur != nil; cur = cur.parent {
		if seen[cur.name] {
			continue
		}
		seen[cur.name] = true
		names = append(names, cur.name)
	}
	return names
}
