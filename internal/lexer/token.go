package lexer

import "github.com/voxlogica-project/voxlogica-core/internal/ast"

// TokenType classifies a lexical token, following the ImgQL grammar of
// spec §6.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL
	NEWLINE

	// Keywords
	LET
	IN
	FOR
	DO
	IMPORT
	PRINT
	SAVE

	IDENTIFIER // optionally dotted ns.name
	OPERATOR   // run of the operator symbol-set
	INTEGER
	FLOAT
	STRING
	BOOLEAN

	LPAREN
	RPAREN
	COMMA
	EQUALS

	COMMENT
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	ILLEGAL:    "ILLEGAL",
	NEWLINE:    "NEWLINE",
	LET:        "let",
	IN:         "in",
	FOR:        "for",
	DO:         "do",
	IMPORT:     "import",
	PRINT:      "print",
	SAVE:       "save",
	IDENTIFIER: "IDENTIFIER",
	OPERATOR:   "OPERATOR",
	INTEGER:    "INTEGER",
	FLOAT:      "FLOAT",
	STRING:     "STRING",
	BOOLEAN:    "BOOLEAN",
	LPAREN:     "(",
	RPAREN:     ")",
	COMMA:      ",",
	EQUALS:     "=",
	COMMENT:    "COMMENT",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

var keywords = map[string]TokenType{
	"let":    LET,
	"in":     IN,
	"for":    FOR,
	"do":     DO,
	"import": IMPORT,
	"print":  PRINT,
	"save":   SAVE,
	"true":   BOOLEAN,
	"false":  BOOLEAN,
}

// Token is a single lexical unit with its source position.
type Token struct {
	Type     TokenType
	Text     string
	Position ast.Position
}

func (t Token) String() string {
	return t.Type.String() + "(" + t.Text + ")"
}
