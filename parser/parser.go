// Package parser builds the syntax tree for a token stream. It is a
// recursive-descent parser with a single token of lookahead; expressions use
// Pratt-style binding powers. The parser performs no semantic validation;
// name resolution and literal range checks belong to the compiler.
package parser

import (
	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/ast"
	"github.com/edsrzf/trunk/errors"
	"github.com/edsrzf/trunk/lexer"
	"github.com/edsrzf/trunk/token"
)

type Parser struct {
	l *lexer.Lexer
}

func New(l *lexer.Lexer) *Parser {
	return &Parser{l: l}
}

// Parse consumes the whole token stream and returns the program. Lex and
// grammar failures raised below are recovered here and returned as errors;
// a given token stream always parses to the same tree.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			prog = nil
			err = tracerr.Wrap(rerr)
		}
	}()

	prog = &ast.Program{}
	for !p.l.PeekIs(token.EOF) {
		prog.Statements = append(prog.Statements, p.statement(true))
	}
	p.l.LexExpecting(token.EOF)
	return
}

func (p *Parser) statement(topLevel bool) ast.Statement {
	switch {
	case p.l.PeekIs(token.LET):
		return p.letStatement()
	case p.l.PeekIs(token.FUNCTION):
		if !topLevel {
			tok := p.l.Peek()
			panic(&errors.ParseError{
				Msg: "function declarations are only allowed at the top level",
				Got: tok,
			})
		}
		return p.functionDecl()
	case p.l.PeekIs(token.CLASS):
		if !topLevel {
			tok := p.l.Peek()
			panic(&errors.ParseError{
				Msg: "class declarations are only allowed at the top level",
				Got: tok,
			})
		}
		return p.classDecl()
	case p.l.PeekIs(token.IF):
		return p.ifStatement()
	case p.l.PeekIs(token.WHILE):
		return p.whileStatement()
	case p.l.PeekIs(token.RETURN):
		return p.returnStatement()
	case p.l.PeekIs(token.ECHO):
		return p.echoStatement()
	}

	expr := p.expression(0)
	p.l.LexExpecting(token.SEMICOLON)
	return &ast.ExprStmt{Expr: expr}
}

func (p *Parser) letStatement() ast.Statement {
	tok := p.l.LexExpecting(token.LET)
	name := p.identifier()
	p.l.LexExpecting(token.ASSIGN)
	value := p.expression(0)
	end := p.l.LexExpecting(token.SEMICOLON)
	return &ast.Let{
		Name:  name,
		Value: value,
		Pos:   token.Span{From: tok.Span.From, To: end.Span.To},
	}
}

func (p *Parser) functionDecl() ast.Statement {
	tok := p.l.LexExpecting(token.FUNCTION)
	name := p.identifier()
	params := p.parameters()
	body := p.block()
	return &ast.FunctionDecl{
		Name:   name,
		Params: params,
		Body:   body,
		Pos:    token.Span{From: tok.Span.From, To: p.l.Pos()},
	}
}

func (p *Parser) classDecl() ast.Statement {
	tok := p.l.LexExpecting(token.CLASS)
	name := p.identifier()
	p.l.LexExpecting(token.LBRACE)

	var methods []*ast.MethodDecl
	for !p.l.PeekIs(token.RBRACE) {
		methods = append(methods, p.methodDecl())
	}
	p.l.LexExpecting(token.RBRACE)

	return &ast.ClassDecl{
		Name:    name,
		Methods: methods,
		Pos:     token.Span{From: tok.Span.From, To: p.l.Pos()},
	}
}

// methodDecl parses optional visibility modifiers followed by a function
// member. Classes may only contain methods.
func (p *Parser) methodDecl() *ast.MethodDecl {
	flagKinds := map[token.Kind]ast.MethodFlag{
		token.PUBLIC:    ast.FlagPublic,
		token.PRIVATE:   ast.FlagPrivate,
		token.PROTECTED: ast.FlagProtected,
		token.STATIC:    ast.FlagStatic,
	}

	var flags []ast.MethodFlag
	start := p.l.Peek().Span.From
	for {
		flag, ok := flagKinds[p.l.Peek().Kind]
		if !ok {
			break
		}
		flags = append(flags, flag)
		p.l.Lex()
	}

	if !p.l.PeekIs(token.FUNCTION) {
		panic(&errors.ParseError{
			Msg: "classes may only contain methods",
			Got: p.l.Peek(),
		})
	}
	p.l.LexExpecting(token.FUNCTION)
	name := p.identifier()
	params := p.parameters()
	body := p.block()

	return &ast.MethodDecl{
		Name:   name,
		Params: params,
		Body:   body,
		Flags:  flags,
		Pos:    token.Span{From: start, To: p.l.Pos()},
	}
}

func (p *Parser) ifStatement() ast.Statement {
	tok := p.l.LexExpecting(token.IF)
	p.l.LexExpecting(token.LPAREN)
	cond := p.expression(0)
	p.l.LexExpecting(token.RPAREN)
	then := p.block()

	var elseBlock ast.Block
	if p.l.PeekIs(token.ELSE) {
		p.l.LexExpecting(token.ELSE)
		if p.l.PeekIs(token.IF) {
			elseBlock = ast.Block{p.ifStatement()}
		} else {
			elseBlock = p.block()
		}
	}

	return &ast.If{
		Cond: cond,
		Then: then,
		Else: elseBlock,
		Pos:  token.Span{From: tok.Span.From, To: p.l.Pos()},
	}
}

func (p *Parser) whileStatement() ast.Statement {
	tok := p.l.LexExpecting(token.WHILE)
	p.l.LexExpecting(token.LPAREN)
	cond := p.expression(0)
	p.l.LexExpecting(token.RPAREN)
	body := p.block()
	return &ast.While{
		Cond: cond,
		Body: body,
		Pos:  token.Span{From: tok.Span.From, To: p.l.Pos()},
	}
}

func (p *Parser) returnStatement() ast.Statement {
	tok := p.l.LexExpecting(token.RETURN)
	var value ast.Expression
	if !p.l.PeekIs(token.SEMICOLON) {
		value = p.expression(0)
	}
	end := p.l.LexExpecting(token.SEMICOLON)
	return &ast.Return{
		Value: value,
		Pos:   token.Span{From: tok.Span.From, To: end.Span.To},
	}
}

// echoStatement parses `echo` with one or more comma-separated values.
func (p *Parser) echoStatement() ast.Statement {
	tok := p.l.LexExpecting(token.ECHO)
	values := []ast.Expression{p.expression(0)}
	for p.l.PeekIs(token.COMMA) {
		p.l.LexExpecting(token.COMMA)
		values = append(values, p.expression(0))
	}
	end := p.l.LexExpecting(token.SEMICOLON)
	return &ast.Echo{
		Values: values,
		Pos:    token.Span{From: tok.Span.From, To: end.Span.To},
	}
}

func (p *Parser) block() ast.Block {
	p.l.LexExpecting(token.LBRACE)
	var statements ast.Block
	for !p.l.PeekIs(token.RBRACE) {
		statements = append(statements, p.statement(false))
	}
	p.l.LexExpecting(token.RBRACE)
	return statements
}

func (p *Parser) identifier() ast.Identifier {
	tok := p.l.LexExpecting(token.IDENT)
	return ast.Identifier{Name: tok.Literal, Pos: tok.Span}
}

func (p *Parser) parameters() []ast.Identifier {
	p.l.LexExpecting(token.LPAREN)
	var params []ast.Identifier
	for !p.l.PeekIs(token.RPAREN) {
		params = append(params, p.identifier())
		if !p.l.PeekIs(token.RPAREN) {
			p.l.LexExpecting(token.COMMA)
		}
	}
	p.l.LexExpecting(token.RPAREN)
	return params
}

func (p *Parser) arguments() []ast.Expression {
	p.l.LexExpecting(token.LPAREN)
	var args []ast.Expression
	for !p.l.PeekIs(token.RPAREN) {
		args = append(args, p.expression(0))
		if !p.l.PeekIs(token.RPAREN) {
			p.l.LexExpecting(token.COMMA)
		}
	}
	p.l.LexExpecting(token.RPAREN)
	return args
}

// Binding powers follow the original grammar: comparison binds looser than
// additive, additive looser than multiplicative, calls bind tightest.
// Binary operators are left-associative; assignment is right-associative.
func infixBindingPower(k token.Kind) (int, int, bool) {
	switch k {
	case token.ASSIGN:
		return 2, 1, true
	case token.EQ, token.NEQ:
		return 7, 8, true
	case token.LESS, token.GREATER, token.LESSEQ, token.GREATEREQ:
		return 9, 10, true
	case token.PLUS, token.MINUS:
		return 11, 12, true
	case token.STAR, token.SLASH:
		return 13, 14, true
	}
	return 0, 0, false
}

const prefixBindingPower = 15

func postfixBindingPower(k token.Kind) (int, bool) {
	switch k {
	case token.LPAREN, token.LBRACKET, token.PERIOD:
		return 19, true
	}
	return 0, false
}

func (p *Parser) expression(bp int) ast.Expression {
	lhs := p.expressionLeaf()

	for {
		kind := p.l.Peek().Kind

		if lbp, ok := postfixBindingPower(kind); ok {
			if lbp < bp {
				break
			}
			lhs = p.postfix(lhs, kind)
			continue
		}

		if lbp, rbp, ok := infixBindingPower(kind); ok {
			if lbp < bp {
				break
			}
			tok := p.l.Lex()
			rhs := p.expression(rbp)

			if kind == token.ASSIGN {
				lhs = p.assignment(lhs, rhs, tok)
			} else {
				lhs = &ast.Infix{
					Op:    ast.InfixOp(kind),
					Left:  lhs,
					Right: rhs,
					Pos:   tok.Span,
				}
			}
			continue
		}

		break
	}

	return lhs
}

// assignment rewrites `target = value` by the shape of the target: a name,
// a property, or an index expression. Anything else is a grammar error.
func (p *Parser) assignment(target ast.Expression, value ast.Expression, tok token.Token) ast.Expression {
	switch lhs := target.(type) {
	case *ast.Var:
		return &ast.Assign{
			Name:  ast.Identifier{Name: lhs.Name, Pos: lhs.Pos},
			Value: value,
			Pos:   tok.Span,
		}
	case *ast.Property:
		return &ast.SetProperty{
			Recv:  lhs.Recv,
			Name:  lhs.Name,
			Value: value,
			Pos:   tok.Span,
		}
	case *ast.Index:
		return &ast.SetIndex{
			Recv:  lhs.Recv,
			Key:   lhs.Key,
			Value: value,
			Pos:   tok.Span,
		}
	}
	panic(&errors.ParseError{Msg: "invalid assignment target", Got: tok})
}

func (p *Parser) postfix(lhs ast.Expression, kind token.Kind) ast.Expression {
	switch kind {
	case token.LPAREN:
		// Only named functions can be called.
		v, ok := lhs.(*ast.Var)
		if !ok {
			panic(&errors.ParseError{Msg: "only named functions can be called", Got: p.l.Peek()})
		}
		args := p.arguments()
		return &ast.Call{
			Function: ast.Identifier{Name: v.Name, Pos: v.Pos},
			Args:     args,
			Pos:      token.Span{From: v.Pos.From, To: p.l.Pos()},
		}
	case token.LBRACKET:
		open := p.l.LexExpecting(token.LBRACKET)
		key := p.expression(0)
		p.l.LexExpecting(token.RBRACKET)
		return &ast.Index{
			Recv: lhs,
			Key:  key,
			Pos:  token.Span{From: open.Span.From, To: p.l.Pos()},
		}
	case token.PERIOD:
		p.l.LexExpecting(token.PERIOD)
		name := p.identifier()
		if p.l.PeekIs(token.LPAREN) {
			args := p.arguments()
			return &ast.MethodCall{
				Recv: lhs,
				Name: name,
				Args: args,
				Pos:  token.Span{From: name.Pos.From, To: p.l.Pos()},
			}
		}
		return &ast.Property{
			Recv: lhs,
			Name: name,
			Pos:  name.Pos,
		}
	}
	panic("unhandled postfix token " + kind.String())
}

func (p *Parser) expressionLeaf() ast.Expression {
	tok := p.l.LexExpecting(
		token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE,
		token.IDENT, token.THIS, token.NEW, token.LPAREN, token.LBRACKET,
		token.MINUS, token.BANG,
	)

	switch tok.Kind {
	case token.INT:
		return &ast.IntLit{Text: tok.Literal, Pos: tok.Span}
	case token.FLOAT:
		return &ast.FloatLit{Text: tok.Literal, Pos: tok.Span}
	case token.STRING:
		return &ast.StringLit{Value: tok.Literal, Pos: tok.Span}
	case token.TRUE:
		return &ast.BoolLit{Value: true, Pos: tok.Span}
	case token.FALSE:
		return &ast.BoolLit{Value: false, Pos: tok.Span}
	case token.IDENT:
		return &ast.Var{Name: tok.Literal, Pos: tok.Span}
	case token.THIS:
		return &ast.This{Pos: tok.Span}
	case token.NEW:
		class := p.identifier()
		args := p.arguments()
		return &ast.New{
			Class: class,
			Args:  args,
			Pos:   token.Span{From: tok.Span.From, To: p.l.Pos()},
		}
	case token.LPAREN:
		expr := p.expression(0)
		p.l.LexExpecting(token.RPAREN)
		return expr
	case token.LBRACKET:
		var items []ast.Expression
		for !p.l.PeekIs(token.RBRACKET) {
			items = append(items, p.expression(0))
			if !p.l.PeekIs(token.RBRACKET) {
				p.l.LexExpecting(token.COMMA)
			}
		}
		end := p.l.LexExpecting(token.RBRACKET)
		return &ast.ArrayLit{
			Items: items,
			Pos:   token.Span{From: tok.Span.From, To: end.Span.To},
		}
	case token.MINUS:
		return &ast.Prefix{
			Op:      ast.OpNeg,
			Operand: p.expression(prefixBindingPower),
			Pos:     tok.Span,
		}
	case token.BANG:
		return &ast.Prefix{
			Op:      ast.OpNot,
			Operand: p.expression(prefixBindingPower),
			Pos:     tok.Span,
		}
	}

	panic("unhandled expression leaf " + tok.Kind.String())
}
