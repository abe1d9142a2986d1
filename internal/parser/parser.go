package parser

import (
	"strconv"

	"github.com/voxlogica-project/voxlogica-core/internal/ast"
	"github.com/voxlogica-project/voxlogica-core/internal/lexer"
)

// infixPrecedence assigns a binding power to operator symbols used infix,
// e.g. "1 + 2". spec §6 defines the operator symbol-set but leaves relative
// precedence unspecified beyond the S1 example; this mirrors the
// conventional arithmetic/comparison tiering and is recorded as an explicit
// decision in DESIGN.md.
var infixPrecedence = map[string]int{
	"==": 1, "!=": 1, "<": 1, "<=": 1, ">": 1, ">=": 1,
	"+": 2, "-": 2,
	"*": 3, "/": 3,
}

const defaultPrecedence = 2

func precedenceOf(op string) int {
	if p, ok := infixPrecedence[op]; ok {
		return p
	}
	return defaultPrecedence
}

// Parser is a recursive-descent, one-token-lookahead parser over the ImgQL
// grammar of spec §6, in the manner of the teacher's parser package.
type Parser struct {
	lex     *lexer.Lexer
	source  string
	current lexer.Token
	peeked  *lexer.Token
}

// Parse tokenizes and parses a complete ImgQL source file into a Program.
func Parse(source string) (*ast.Program, error) {
	p := &Parser{lex: lexer.New(source), source: source}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *Parser) advance() error {
	if p.peeked != nil {
		p.current = *p.peeked
		p.peeked = nil
		return nil
	}
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) peekAhead() (lexer.Token, error) {
	if p.peeked == nil {
		tok, err := p.lex.Next()
		if err != nil {
			return lexer.Token{}, err
		}
		p.peeked = &tok
	}
	return *p.peeked, nil
}

func (p *Parser) skipNewlines() error {
	for p.current.Type == lexer.NEWLINE {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) expect(t lexer.TokenType, what string) (lexer.Token, error) {
	if p.current.Type != t {
		return lexer.Token{}, p.unexpected(what)
	}
	tok := p.current
	return tok, p.advance()
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	if err := p.skipNewlines(); err != nil {
		return nil, err
	}
	for p.current.Type != lexer.EOF {
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		prog.Commands = append(prog.Commands, cmd)
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func (p *Parser) parseCommand() (ast.Command, error) {
	pos := p.current.Position
	switch p.current.Type {
	case lexer.IMPORT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		tok, err := p.expect(lexer.STRING, "namespace string")
		if err != nil {
			return nil, err
		}
		return ast.Import{Namespace: tok.Text, Position: pos}, nil

	case lexer.PRINT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		label, err := p.expect(lexer.STRING, "print label string")
		if err != nil {
			return nil, err
		}
		target, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.Print{Label: label.Text, Target: target, Position: pos}, nil

	case lexer.SAVE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		path, err := p.expect(lexer.STRING, "save path string")
		if err != nil {
			return nil, err
		}
		target, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.Save{Path: path.Text, Target: target, Position: pos}, nil

	case lexer.LET:
		return p.parseLetCommand(pos)

	default:
		return nil, p.unexpected("a top-level command (let/print/save/import)")
	}
}

func (p *Parser) parseLetCommand(pos ast.Position) (ast.Command, error) {
	if err := p.advance(); err != nil { // consume 'let'
		return nil, err
	}
	name, err := p.parseDeclaredName()
	if err != nil {
		return nil, err
	}

	if p.current.Type == lexer.LPAREN {
		params, err := p.parseParameterList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.EQUALS, "'=' after function parameters"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.FunctionDecl{Name: name, Parameters: params, Body: body, Position: pos}, nil
	}

	if _, err := p.expect(lexer.EQUALS, "'=' after let-bound name"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.Let{Name: name, Value: value, Position: pos}, nil
}

// parseDeclaredName accepts either an ordinary identifier or an operator
// symbol token as the declared name, per spec §6: "Operator symbols may be
// used as function names when declared (e.g., let +(a,b) = addition(a,b))".
func (p *Parser) parseDeclaredName() (string, error) {
	switch p.current.Type {
	case lexer.IDENTIFIER, lexer.OPERATOR:
		name := p.current.Text
		return name, p.advance()
	default:
		return "", p.unexpected("a declared name")
	}
}

func (p *Parser) parseParameterList() ([]string, error) {
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []string
	for p.current.Type != lexer.RPAREN {
		tok, err := p.expect(lexer.IDENTIFIER, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Text)
		if p.current.Type == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseArgumentList() ([]ast.Expr, error) {
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.current.Type != lexer.RPAREN {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.current.Type == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseExpr implements precedence-climbing for infix operator application,
// desugaring "a OP b" into Application{Function: Identifier(OP), [a, b]}.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnaryOrPrimary()
	if err != nil {
		return nil, err
	}
	for p.current.Type == lexer.OPERATOR {
		op := p.current.Text
		prec := precedenceOf(op)
		if prec < minPrec {
			break
		}
		opPos := p.current.Position
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.Application{
			Function:  ast.Identifier{Name: op, Position: opPos},
			Arguments: []ast.Expr{left, right},
			Position:  opPos,
		}
	}
	return left, nil
}

func (p *Parser) parseUnaryOrPrimary() (ast.Expr, error) {
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	pos := p.current.Position
	switch p.current.Type {
	case lexer.INTEGER:
		text := p.current.Text
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NumberLit{Int: n, Text: text, Position: pos}, nil

	case lexer.FLOAT:
		text := p.current.Text
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NumberLit{IsFloat: true, Float: f, Text: text, Position: pos}, nil

	case lexer.BOOLEAN:
		v := p.current.Text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.BoolLit{Value: v, Position: pos}, nil

	case lexer.STRING:
		text := p.current.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.StringLit{Value: text, Position: pos}, nil

	case lexer.IDENTIFIER:
		return p.parseIdentifierOrApplication(pos)

	case lexer.OPERATOR:
		// An operator symbol in primary position names a declared operator
		// function used as an ordinary application target, e.g. "+(1,2)".
		return p.parseIdentifierOrApplication(pos)

	case lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.LET:
		return p.parseLetExpr(pos)

	case lexer.FOR:
		return p.parseForExpr(pos)

	default:
		return nil, p.unexpected("an expression")
	}
}

func (p *Parser) parseIdentifierOrApplication(pos ast.Position) (ast.Expr, error) {
	name := p.current.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	ns, local := splitNamespace(name)
	id := ast.Identifier{Namespace: ns, Name: local, Position: pos}
	if p.current.Type != lexer.LPAREN {
		return id, nil
	}
	args, err := p.parseArgumentList()
	if err != nil {
		return nil, err
	}
	return ast.Application{Function: id, Arguments: args, Position: pos}, nil
}

func splitNamespace(name string) (ns, local string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

func (p *Parser) parseLetExpr(pos ast.Position) (ast.Expr, error) {
	if err := p.advance(); err != nil { // consume 'let'
		return nil, err
	}
	name, err := p.expect(lexer.IDENTIFIER, "let-bound name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQUALS, "'=' in let expression"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN, "'in'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.Let{Name: name.Text, Value: value, Body: body, Position: pos}, nil
}

func (p *Parser) parseForExpr(pos ast.Position) (ast.Expr, error) {
	if err := p.advance(); err != nil { // consume 'for'
		return nil, err
	}
	variable, err := p.expect(lexer.IDENTIFIER, "loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN, "'in'"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.DO, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.For{Variable: variable.Text, Iterable: iterable, Body: body, Position: pos}, nil
}
