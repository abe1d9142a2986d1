package parser_test

import (
	"testing"

	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/parser"
)

func TestParseLetAndPrint(t *testing.T) {
	prog, err := parser.Parse(`
let x = 1
print "x" x
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(prog.Commands))
	}
	let, ok := prog.Commands[0].(ast.Let)
	if !ok || let.Name != "x" {
		t.Fatalf("unexpected first command: %#v", prog.Commands[0])
	}
	print, ok := prog.Commands[1].(ast.Print)
	if !ok || print.Label != "x" {
		t.Fatalf("unexpected second command: %#v", prog.Commands[1])
	}
}

func TestParseInfixPrecedence(t *testing.T) {
	prog, err := parser.Parse(`print "r" 1 + 2 * 3`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	print := prog.Commands[0].(ast.Print)
	app, ok := print.Target.(ast.Application)
	if !ok {
		t.Fatalf("expected top-level application, got %T", print.Target)
	}
	if fn, ok := app.Function.(ast.Identifier); !ok || fn.Name != "+" {
		t.Fatalf("expected '+' at the top (lowest precedence binds loosest to the right), got %#v", app.Function)
	}
	rhs, ok := app.Arguments[1].(ast.Application)
	if !ok {
		t.Fatalf("expected '2 * 3' to bind tighter, got %#v", app.Arguments[1])
	}
	if fn, ok := rhs.Function.(ast.Identifier); !ok || fn.Name != "*" {
		t.Fatalf("expected '*' as the nested operator, got %#v", rhs.Function)
	}
}

func TestParseFunctionDeclarationAndApplication(t *testing.T) {
	prog, err := parser.Parse(`
let double(x) = x * 2
print "r" double(21)
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, ok := prog.Commands[0].(ast.FunctionDecl)
	if !ok || fn.Name != "double" || len(fn.Parameters) != 1 || fn.Parameters[0] != "x" {
		t.Fatalf("unexpected function decl: %#v", prog.Commands[0])
	}
	print := prog.Commands[1].(ast.Print)
	app, ok := print.Target.(ast.Application)
	if !ok {
		t.Fatalf("expected application, got %T", print.Target)
	}
	if fnID, ok := app.Function.(ast.Identifier); !ok || fnID.Name != "double" {
		t.Fatalf("unexpected application function: %#v", app.Function)
	}
}

func TestParseOperatorAsDeclaredName(t *testing.T) {
	prog, err := parser.Parse(`let +(a, b) = addition(a, b)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, ok := prog.Commands[0].(ast.FunctionDecl)
	if !ok || fn.Name != "+" {
		t.Fatalf("unexpected function decl: %#v", prog.Commands[0])
	}
}

func TestParseQualifiedIdentifier(t *testing.T) {
	prog, err := parser.Parse(`print "r" dataset.readdir("/tmp")`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	print := prog.Commands[0].(ast.Print)
	app, ok := print.Target.(ast.Application)
	if !ok {
		t.Fatalf("expected application, got %T", print.Target)
	}
	id, ok := app.Function.(ast.Identifier)
	if !ok || id.Namespace != "dataset" || id.Name != "readdir" {
		t.Fatalf("unexpected function identifier: %#v", app.Function)
	}
}

func TestParseLetExpressionAndFor(t *testing.T) {
	prog, err := parser.Parse(`
let bag = range(0, 3)
print "r" for x in bag do let y = x + 1 in y * 2
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	print := prog.Commands[1].(ast.Print)
	forExpr, ok := print.Target.(ast.For)
	if !ok || forExpr.Variable != "x" {
		t.Fatalf("unexpected for expression: %#v", print.Target)
	}
	letExpr, ok := forExpr.Body.(ast.Let)
	if !ok || letExpr.Name != "y" || letExpr.Body == nil {
		t.Fatalf("unexpected let expression inside for body: %#v", forExpr.Body)
	}
}

func TestParseImport(t *testing.T) {
	prog, err := parser.Parse(`import "dataset"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	imp, ok := prog.Commands[0].(ast.Import)
	if !ok || imp.Namespace != "dataset" {
		t.Fatalf("unexpected import: %#v", prog.Commands[0])
	}
}

func TestParseSave(t *testing.T) {
	prog, err := parser.Parse(`save "out.txt" 1 + 1`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, ok := prog.Commands[0].(ast.Save)
	if !ok || s.Path != "out.txt" {
		t.Fatalf("unexpected save: %#v", prog.Commands[0])
	}
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	_, err := parser.Parse(`let x =`)
	if err == nil {
		t.Fatal("expected a parse error for a missing expression")
	}
}
