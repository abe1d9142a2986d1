package reduce_test

import (
	"testing"

	"github.com/voxlogica-project/voxlogica-core/internal/parser"
	"github.com/voxlogica-project/voxlogica-core/internal/reduce"
	"github.com/voxlogica-project/voxlogica-core/internal/registry"
	"github.com/voxlogica-project/voxlogica-core/internal/vlerr"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	noop := func(args map[string]registry.Value) (registry.Value, error) { return nil, nil }
	defaultNS := registry.StaticNamespace{"+": noop, "-": noop, "*": noop, "<": noop}
	if err := reg.RegisterNamespace("default", defaultNS); err != nil {
		t.Fatalf("RegisterNamespace(default): %v", err)
	}
	imaging := registry.StaticNamespace{"threshold": noop}
	if err := reg.RegisterNamespace("imaging", imaging); err != nil {
		t.Fatalf("RegisterNamespace(imaging): %v", err)
	}
	return reg
}

func TestReduceConstantAndArithmeticDedup(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
let x = 1 + 2
let y = 1 + 2
print "x" x
print "y" y
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wp, err := reduce.New(reg).ReduceProgram(prog)
	if err != nil {
		t.Fatalf("ReduceProgram: %v", err)
	}
	goals := wp.Goals()
	if len(goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(goals))
	}
	if goals[0].Target != goals[1].Target {
		t.Fatalf("identical subexpressions must share a node id: %v != %v", goals[0].Target, goals[1].Target)
	}
}

func TestReduceCommutativeOperandOrderDedup(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
let a = 1 + 2
let b = 2 + 1
print "a" a
print "b" b
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wp, err := reduce.New(reg).ReduceProgram(prog)
	if err != nil {
		t.Fatalf("ReduceProgram: %v", err)
	}
	goals := wp.Goals()
	if len(goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(goals))
	}
	if goals[0].Target != goals[1].Target {
		t.Fatalf("1 + 2 and 2 + 1 must share a node id via argument-key canonicalization: %v != %v", goals[0].Target, goals[1].Target)
	}

	ops, err := wp.Operations()
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	plusCount := 0
	for _, n := range ops {
		if n.Operation != nil && n.Operation.Operator == "+" {
			plusCount++
		}
	}
	if plusCount != 1 {
		t.Fatalf("expected exactly one + operation node, got %d", plusCount)
	}
}

func TestReduceUnboundIdentifier(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`print "x" x`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = reduce.New(reg).ReduceProgram(prog)
	if err == nil {
		t.Fatal("expected an error for an unbound identifier")
	}
	if code, ok := vlerr.CodeOf(err); !ok || code != vlerr.UnboundIdentifier {
		t.Fatalf("expected UnboundIdentifier, got %v", err)
	}
}

func TestReduceFunctionApplicationInlines(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
let double(a) = a + a
let result = double(3)
print "result" result
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wp, err := reduce.New(reg).ReduceProgram(prog)
	if err != nil {
		t.Fatalf("ReduceProgram: %v", err)
	}
	ops, err := wp.Operations()
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	if len(ops) == 0 {
		t.Fatal("expected at least one operation node from inlining double(3)")
	}
}

func TestReduceArityMismatch(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
let double(a) = a + a
let result = double(3, 4)
print "result" result
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = reduce.New(reg).ReduceProgram(prog)
	if err == nil {
		t.Fatal("expected an arity mismatch error")
	}
	if code, ok := vlerr.CodeOf(err); !ok || code != vlerr.ArityMismatch {
		t.Fatalf("expected ArityMismatch, got %v", err)
	}
}

func TestReduceDuplicateTopLevelDeclaration(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
let x = 1
let x = 2
print "x" x
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = reduce.New(reg).ReduceProgram(prog)
	if err == nil {
		t.Fatal("expected a duplicate-declaration error")
	}
	if code, ok := vlerr.CodeOf(err); !ok || code != vlerr.DuplicateDeclaration {
		t.Fatalf("expected DuplicateDeclaration, got %v", err)
	}
}

func TestReduceImportUnknownNamespace(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`import "nonexistent"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = reduce.New(reg).ReduceProgram(prog)
	if err == nil {
		t.Fatal("expected an import error")
	}
	if code, ok := vlerr.CodeOf(err); !ok || code != vlerr.ImportError {
		t.Fatalf("expected ImportError, got %v", err)
	}
}

func TestReduceImportKnownNamespaceIsRecorded(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
import "imaging"
print "x" 1
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wp, err := reduce.New(reg).ReduceProgram(prog)
	if err != nil {
		t.Fatalf("ReduceProgram: %v", err)
	}
	imports := wp.Imports().Sorted()
	if len(imports) != 2 || imports[0] != "default" || imports[1] != "imaging" {
		t.Fatalf("expected imports [default imaging] (default via the built-in prelude), got %v", imports)
	}
}

func TestReduceForLoopEmitsDaskMapWithoutReducingBody(t *testing.T) {
	reg := newTestRegistry(t)
	prog, err := parser.Parse(`
let bag = 1
let result = for x in bag do x + unbound_helper
print "result" result
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// The for-loop body references "unbound_helper", which is never bound
	// anywhere; this must not fail reduction, because the body is only
	// compiled later, once bag elements are known (spec §4.6).
	wp, err := reduce.New(reg).ReduceProgram(prog)
	if err != nil {
		t.Fatalf("ReduceProgram: %v", err)
	}
	ops, err := wp.Operations()
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	found := false
	for _, n := range ops {
		if n.Operation.Operator == "dask_map" {
			found = true
			if _, ok := n.Operation.Arguments["closure"]; !ok {
				t.Fatal("dask_map operation missing closure argument")
			}
		}
	}
	if !found {
		t.Fatal("expected a dask_map operation node")
	}
}
