// Package ast defines the ImgQL abstract syntax tree produced by
// internal/parser and consumed by internal/reduce.
package ast

// Position locates a token or node in the original source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return itoa(p.Line) + ":" + itoa(p.Column)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
	node()
}

// NumberLit is an integer or floating-point literal.
type NumberLit struct {
	Position Position
	IsFloat  bool
	Int      int64
	Float    float64
	Text     string // original source text, kept for diagnostics only
}

func (n NumberLit) Pos() Position { return n.Position }
func (NumberLit) node()           {}
func (NumberLit) expr()           {}

// BoolLit is a boolean literal.
type BoolLit struct {
	Position Position
	Value    bool
}

func (n BoolLit) Pos() Position { return n.Position }
func (BoolLit) node()           {}
func (BoolLit) expr()           {}

// StringLit is a double-quoted, backslash-escaped string literal.
type StringLit struct {
	Position Position
	Value    string
}

func (n StringLit) Pos() Position { return n.Position }
func (StringLit) node()           {}
func (StringLit) expr()           {}

// Identifier is a (possibly dotted, ns.name) name reference.
type Identifier struct {
	Position  Position
	Namespace string // empty if unqualified
	Name      string
}

func (n Identifier) Pos() Position { return n.Position }
func (Identifier) node()           {}
func (Identifier) expr()           {}

// Qualified reports whether the identifier carries an explicit namespace.
func (id Identifier) Qualified() bool { return id.Namespace != "" }

// Application is function/operator application f(a1, ..., an).
type Application struct {
	Position  Position
	Function  Expr
	Arguments []Expr
}

func (n Application) Pos() Position { return n.Position }
func (Application) node()           {}
func (Application) expr()           {}

// Let is both the expression form (let x = e1 in e2) and, when Body is nil,
// a top-level declaration (let x = e1) that extends the program environment.
type Let struct {
	Position Position
	Name     string
	Value    Expr
	Body     Expr // nil for top-level declarations
}

func (n Let) Pos() Position { return n.Position }
func (Let) node()           {}
func (Let) expr()           {}
func (Let) command()        {}

// FunctionDecl binds Name to a function template; it never emits a node.
type FunctionDecl struct {
	Position   Position
	Name       string
	Parameters []string
	Body       Expr
}

func (n FunctionDecl) Pos() Position { return n.Position }
func (FunctionDecl) node()           {}
func (FunctionDecl) command()        {}

// Import adds a namespace to the workplan's imported-namespaces set.
type Import struct {
	Position  Position
	Namespace string
}

func (n Import) Pos() Position { return n.Position }
func (Import) node()           {}
func (Import) command()        {}

// Print is a top-level goal: print "label" expr.
type Print struct {
	Position Position
	Label    string
	Target   Expr
}

func (n Print) Pos() Position { return n.Position }
func (Print) node()           {}
func (Print) command()        {}

// Save is a top-level goal: save "path" expr.
type Save struct {
	Position Position
	Path     string
	Target   Expr
}

func (n Save) Pos() Position { return n.Position }
func (Save) node()           {}
func (Save) command()        {}

// For is the lazy for-loop: for x in iter do body.
type For struct {
	Position Position
	Variable string
	Iterable Expr
	Body     Expr
}

func (n For) Pos() Position { return n.Position }
func (For) node()           {}
func (For) expr()           {}

// Expr is the subset of Node usable in expression position.
type Expr interface {
	Node
	expr()
}

// Command is the subset of Node usable at top level.
type Command interface {
	Node
	command()
}

// Program is a parsed ImgQL source file: an ordered list of top-level
// commands (declarations, imports, and goals).
type Program struct {
	Commands []Command
}
