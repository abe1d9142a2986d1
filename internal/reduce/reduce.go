// Package reduce implements the Reducer (C4): it walks a parsed ImgQL
// program and compiles it into a workplan.WorkPlan, threading a persistent
// Env across top-level commands exactly as spec §4.4 describes, and
// resolving identifiers, applications, let-expressions, and for-loops into
// the tagged node variants the scheduler later executes.
package reduce

import (
	"sort"

	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/hashid"
	"github.com/voxlogica-project/voxlogica-core/internal/parser"
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
	"github.com/voxlogica-project/voxlogica-core/internal/workplan"
)

// preludeSource is the built-in preamble reduced ahead of every program
// (spec §6's "standard preamble"): it imports the default namespace so a
// program's own arithmetic/comparison/boolean expressions resolve without
// an explicit `import "default"`. The operator symbols themselves (`+ - *
// /`) are not re-declared here as `let` aliases: they are already
// registered as default-namespace primitives under those exact names
// (internal/stdlib/defaultns), so a source-level alias would just shadow a
// primitive with a FuncTemplate that inlines straight back to it, doubling
// every arithmetic Operation node's reduction path for no behavioral
// difference.
const preludeSource = `import "default"
`

// commutativeOperators lists the default-namespace operators for which
// argument order carries no semantic meaning. S1 requires `1 + 2` and
// `2 + 1` to reduce to the same NodeId ("argument-key canonicalization");
// hashid.Operation already canonicalizes over argument *keys*, so the
// reducer canonicalizes the *assignment* of operand ids to positional keys
// for exactly these operators, by sorting the reduced argument ids before
// keying them "0", "1". This is safe only because each of these primitives
// is actually symmetric in its two arguments — swapping "left" and "right"
// never changes the result.
var commutativeOperators = map[string]bool{
	"+":        true,
	"*":        true,
	"addition": true,
	"==":       true,
	"!=":       true,
	"and":      true,
	"or":       true,
}

// Reducer compiles an ast.Program into a workplan.WorkPlan. ReduceProgram
// resets its duplicate-declaration bookkeeping on every call, so one
// Reducer can be reused across programs.
type Reducer struct {
	reg      *registry.Registry
	declared map[string]bool
}

// New returns a Reducer that validates imports against reg.
func New(reg *registry.Registry) *Reducer {
	return &Reducer{reg: reg}
}

// ReduceProgram compiles prog into a fresh WorkPlan. Top-level commands are
// reduced strictly in order: each let/function declaration extends the
// environment visible to every later command (spec §4.4); print/save pin a
// goal to the node id their target expression reduces to.
func (r *Reducer) ReduceProgram(prog *ast.Program) (*workplan.WorkPlan, error) {
	r.declared = make(map[string]bool)
	wp := workplan.New(r.expand)
	env := workplan.Empty()

	prelude, err := parser.Parse(preludeSource)
	if err != nil {
		return nil, vlerr.Wrap(vlerr.ParseError, err, "parse built-in prelude")
	}
	for _, cmd := range prelude.Commands {
		env, err = r.reduceCommand(cmd, env, wp)
		if err != nil {
			return nil, err
		}
	}

	for _, cmd := range prog.Commands {
		env, err = r.reduceCommand(cmd, env, wp)
		if err != nil {
			return nil, err
		}
	}
	return wp, nil
}

func (r *Reducer) reduceCommand(cmd ast.Command, env *workplan.Env, wp *workplan.WorkPlan) (*workplan.Env, error) {
	switch c := cmd.(type) {
	case ast.Import:
		if err := r.checkImport(c); err != nil {
			return nil, err
		}
		wp.Imports().Add(c.Namespace)
		return env, nil

	case ast.FunctionDecl:
		if err := r.declare(c.Name, c.Position); err != nil {
			return nil, err
		}
		if err := checkDuplicateParams(c.Parameters, c.Position); err != nil {
			return nil, err
		}
		tmpl := &workplan.FuncTemplate{Parameters: c.Parameters, Body: c.Body, CapturedEnv: env}
		return env.Extend(c.Name, workplan.TemplateBinding(tmpl)), nil

	case ast.Let:
		if err := r.declare(c.Name, c.Position); err != nil {
			return nil, err
		}
		id, err := r.reduceExpr(c.Value, env, wp)
		if err != nil {
			return nil, err
		}
		return env.Extend(c.Name, workplan.ValueBinding(id)), nil

	case ast.Print:
		id, err := r.reduceExpr(c.Target, env, wp)
		if err != nil {
			return nil, err
		}
		wp.AddGoal(workplan.GoalPrint, id, c.Label)
		return env, nil

	case ast.Save:
		id, err := r.reduceExpr(c.Target, env, wp)
		if err != nil {
			return nil, err
		}
		wp.AddGoal(workplan.GoalSave, id, c.Path)
		return env, nil

	default:
		return nil, vlerr.At(vlerr.ParseError, cmd.Pos(), "unsupported top-level command %T", cmd)
	}
}

// declare records name as used at the top level, rejecting a second
// declaration of the same name (spec §4.4's DuplicateDeclaration). Ordinary
// shadowing within nested let/for expressions is unaffected: only the
// single top-level scope is tracked here.
func (r *Reducer) declare(name string, pos ast.Position) error {
	if r.declared[name] {
		return vlerr.At(vlerr.DuplicateDeclaration, pos, "%q is already declared at the top level", name)
	}
	r.declared[name] = true
	return nil
}

func checkDuplicateParams(params []string, pos ast.Position) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p] {
			return vlerr.At(vlerr.DuplicateDeclaration, pos, "duplicate parameter name %q", p)
		}
		seen[p] = true
	}
	return nil
}

// checkImport validates that the imported namespace is actually registered.
// ImgQL namespaces are statically registered Go packages in this
// implementation (spec §4.3), so a cyclic-import condition cannot arise the
// way it can for file-based imports; vlerr has no separate CyclicImport
// code, and an unknown namespace is reported as vlerr.ImportError.
func (r *Reducer) checkImport(imp ast.Import) error {
	if r.reg.HasNamespace(imp.Namespace) {
		return nil
	}
	return vlerr.At(vlerr.ImportError, imp.Position, "unknown namespace %q", imp.Namespace)
}

// expand is the workplan.ExpansionFunc supplied to workplan.New: it lets the
// WorkPlan re-enter the reducer for work queued via QueueExpansion or
// compiled directly via WorkPlan.Expand.
func (r *Reducer) expand(wp *workplan.WorkPlan, expr ast.Expr, env *workplan.Env) (hashid.NodeID, error) {
	return r.reduceExpr(expr, env, wp)
}

// reduceExpr is the core of C4 (spec §4.4): it walks an expression,
// compiling it into constant, operation, and closure nodes, and returns the
// id of the node the expression reduces to.
func (r *Reducer) reduceExpr(expr ast.Expr, env *workplan.Env, wp *workplan.WorkPlan) (hashid.NodeID, error) {
	switch e := expr.(type) {
	case ast.NumberLit:
		if e.IsFloat {
			return wp.AddConstant(e.Float), nil
		}
		return wp.AddConstant(e.Int), nil

	case ast.BoolLit:
		return wp.AddConstant(e.Value), nil

	case ast.StringLit:
		return wp.AddConstant(e.Value), nil

	case ast.Identifier:
		return r.reduceIdentifier(e, env, wp)

	case ast.Application:
		return r.reduceApplication(e, env, wp)

	case ast.Let:
		return r.reduceLet(e, env, wp)

	case ast.For:
		return r.reduceFor(e, env, wp)

	default:
		return "", vlerr.At(vlerr.ParseError, expr.Pos(), "unsupported expression %T", expr)
	}
}

func (r *Reducer) reduceIdentifier(id ast.Identifier, env *workplan.Env, wp *workplan.WorkPlan) (hashid.NodeID, error) {
	if id.Namespace != "" {
		// A dotted name in value position refers to a zero-argument
		// namespace primitive: reduce it as an application with no
		// arguments rather than an environment lookup.
		return wp.AddOperation(id.Namespace+"."+id.Name, map[string]hashid.NodeID{}), nil
	}

	b, ok := env.Lookup(id.Name)
	if !ok {
		return "", vlerr.At(vlerr.UnboundIdentifier, id.Position, "unbound identifier %q", id.Name)
	}
	if b.IsValue {
		return b.Value, nil
	}

	// b.Template: a function name referenced without being called.
	if len(b.Template.Parameters) == 0 {
		// Zero-parameter declarations behave as thunks: referencing the
		// name reduces the body in the environment captured at
		// declaration time.
		return r.reduceExpr(b.Template.Body, b.Template.CapturedEnv, wp)
	}

	// A function with one or more parameters used as a value becomes a
	// ClosureValue. ClosureValue binds a single parameter name; a function
	// declared with more than one parameter is represented by folding its
	// parameter list into one composite "a,b" name. Nothing splits that name
	// back apart: dask_map, the only place a closure is applied, binds the
	// element to the whole composite name as a single identifier.
	return wp.AddClosure(joinParams(b.Template.Parameters), b.Template.Body, b.Template.CapturedEnv), nil
}

func (r *Reducer) reduceApplication(app ast.Application, env *workplan.Env, wp *workplan.WorkPlan) (hashid.NodeID, error) {
	argIDs := make([]hashid.NodeID, len(app.Arguments))
	for i, a := range app.Arguments {
		id, err := r.reduceExpr(a, env, wp)
		if err != nil {
			return "", err
		}
		argIDs[i] = id
	}

	if fn, ok := app.Function.(ast.Identifier); ok && fn.Namespace == "" {
		if b, bound := env.Lookup(fn.Name); bound && b.Template != nil {
			return r.applyTemplate(b.Template, argIDs, app.Position, wp)
		}
	}

	operator, err := operatorName(app.Function)
	if err != nil {
		return "", err
	}
	keyedIDs := argIDs
	if commutativeOperators[operator] {
		keyedIDs = append([]hashid.NodeID(nil), argIDs...)
		sort.Slice(keyedIDs, func(i, j int) bool { return keyedIDs[i] < keyedIDs[j] })
	}
	args := make(map[string]hashid.NodeID, len(keyedIDs))
	for i, id := range keyedIDs {
		args[decimal(i)] = id
	}
	return wp.AddOperation(operator, args), nil
}

func (r *Reducer) applyTemplate(tmpl *workplan.FuncTemplate, argIDs []hashid.NodeID, pos ast.Position, wp *workplan.WorkPlan) (hashid.NodeID, error) {
	if len(argIDs) != len(tmpl.Parameters) {
		return "", vlerr.At(vlerr.ArityMismatch, pos, "expected %d argument(s), got %d", len(tmpl.Parameters), len(argIDs))
	}
	callEnv := tmpl.CapturedEnv
	for i, p := range tmpl.Parameters {
		callEnv = callEnv.Extend(p, workplan.ValueBinding(argIDs[i]))
	}
	return r.reduceExpr(tmpl.Body, callEnv, wp)
}

func (r *Reducer) reduceLet(let ast.Let, env *workplan.Env, wp *workplan.WorkPlan) (hashid.NodeID, error) {
	id, err := r.reduceExpr(let.Value, env, wp)
	if err != nil {
		return "", err
	}
	if let.Body == nil {
		// Reached only if a bare declaration is used in expression position,
		// which the parser never produces; guarded for completeness.
		return id, nil
	}
	inner := env.Extend(let.Name, workplan.ValueBinding(id))
	return r.reduceExpr(let.Body, inner, wp)
}

// reduceFor compiles a for-loop into a dask_map Operation over the reduced
// iterable and a ClosureValue for its body (spec §4.4, §4.6). The body is
// deliberately *not* reduced here: the set of bag elements isn't known until
// the Scheduler executes the iterable, so each element's application of the
// closure is compiled lazily via WorkPlan.Expand, once per element, as the
// bag is streamed (spec §4.5's lazy-expansion mechanism).
func (r *Reducer) reduceFor(f ast.For, env *workplan.Env, wp *workplan.WorkPlan) (hashid.NodeID, error) {
	iterID, err := r.reduceExpr(f.Iterable, env, wp)
	if err != nil {
		return "", err
	}
	closureID := wp.AddClosure(f.Variable, f.Body, env)
	return wp.AddOperation("dask_map", map[string]hashid.NodeID{
		"bag":     iterID,
		"closure": closureID,
	}), nil
}

func operatorName(fn ast.Expr) (string, error) {
	id, ok := fn.(ast.Identifier)
	if !ok {
		return "", vlerr.At(vlerr.ParseError, fn.Pos(), "function position must be an identifier, got %T", fn)
	}
	if id.Namespace != "" {
		return id.Namespace + "." + id.Name, nil
	}
	return id.Name, nil
}

func joinParams(params []string) string {
	out := params[0]
	for _, p := range params[1:] {
		out += "," + p
	}
	return out
}

func decimal(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
