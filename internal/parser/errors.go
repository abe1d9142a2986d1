// Package parser turns a token stream from internal/lexer into the AST
// defined by internal/ast, consumed by internal/reduce.
package parser

import (
	"fmt"
	"strings"

	"github.com/voxlogica-project/voxlogica-core/internal/lexer"
)

// ParseError is a syntax error with a Rust/Clang-style source snippet, in
// the shape of the teacher's parser.ParseError (runtime/parser/errors.go).
type ParseError struct {
	Message string
	Token   lexer.Token
	Source  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error: %s\n%s", e.Message, e.snippet())
}

func (e *ParseError) snippet() string {
	if e.Source == "" || e.Token.Position.Line == 0 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if e.Token.Position.Line > len(lines) {
		return ""
	}
	line := lines[e.Token.Position.Line-1]

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %d:%d\n", e.Token.Position.Line, e.Token.Position.Column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", e.Token.Position.Line, line)
	b.WriteString("   | ")
	col := e.Token.Position.Column
	if col > 0 && col <= len(line)+1 {
		b.WriteString(strings.Repeat(" ", col-1) + "^")
	}
	return b.String()
}

func (p *Parser) errorf(format string, args ...interface{}) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Token:   p.current,
		Source:  p.source,
	}
}

func (p *Parser) unexpected(expected string) *ParseError {
	return p.errorf("expected %s, got %s", expected, p.current.Type.String())
}
