// Package lexer turns trunk script source into a lazy token stream. Tokens
// are produced one at a time with a single token of lookahead; the stream is
// consumed once.
package lexer

import (
	"bufio"
	"fmt"
	"io"
	"unicode"

	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/errors"
	"github.com/edsrzf/trunk/token"
)

type Lexer struct {
	pos    token.Position
	reader *bufio.Reader
	peeked *token.Token
}

func New(reader io.Reader) *Lexer {
	return &Lexer{
		pos:    token.Position{Line: 1, Column: 0},
		reader: bufio.NewReader(reader),
	}
}

// Pos is the position of the last rune read.
func (l *Lexer) Pos() token.Position {
	return l.pos
}

func (l *Lexer) newline() {
	l.pos.Line++
	l.pos.Column = 0
}

func (l *Lexer) read() (rune, bool) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return 0, false
		}
		panic(tracerr.Wrap(err))
	}
	l.pos.Column++
	return r, true
}

func (l *Lexer) backup() {
	if err := l.reader.UnreadRune(); err != nil {
		panic(tracerr.Wrap(err))
	}
	l.pos.Column--
}

// accept consumes the next byte if it equals b.
func (l *Lexer) accept(b byte) bool {
	byt, err := l.reader.Peek(1)
	if err != nil || byt[0] != b {
		return false
	}
	l.read()
	return true
}

func (l *Lexer) kinded(kind token.Kind, lit string, from token.Position) token.Token {
	return token.Token{Kind: kind, Literal: lit, Span: token.Span{From: from, To: l.pos}}
}

func firstChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func otherChar(r rune) bool {
	return firstChar(r) || unicode.IsDigit(r)
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() token.Token {
	if l.peeked == nil {
		tok := l.lex()
		l.peeked = &tok
	}
	return *l.peeked
}

func (l *Lexer) PeekIs(kinds ...token.Kind) bool {
	tok := l.Peek()
	for _, kind := range kinds {
		if tok.Kind == kind {
			return true
		}
	}
	return false
}

// Lex consumes and returns the next token. Malformed input raises a
// *errors.LexError; the parser's Parse boundary converts it to an error.
func (l *Lexer) Lex() token.Token {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	return l.lex()
}

// LexExpecting consumes the next token and requires it to be one of the
// given kinds, raising a *errors.ParseError otherwise.
func (l *Lexer) LexExpecting(kinds ...token.Kind) token.Token {
	tok := l.Lex()
	for _, kind := range kinds {
		if tok.Kind == kind {
			return tok
		}
	}
	panic(&errors.ParseError{Expected: kinds, Got: tok})
}

// Tokenize drains the stream to EOF, converting lex failures to errors.
func (l *Lexer) Tokenize() (tokens []token.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				panic(r)
			}
			tokens = nil
			err = tracerr.Wrap(rerr)
		}
	}()
	for {
		tok := l.Lex()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return
		}
	}
}

func (l *Lexer) lex() token.Token {
	for {
		r, ok := l.read()
		if !ok {
			return l.kinded(token.EOF, "", l.pos)
		}

		if r == '\n' {
			l.newline()
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		from := l.pos

		if r == '/' {
			if l.accept('/') {
				l.skipLineComment()
				continue
			}
			if l.accept('*') {
				l.skipBlockComment(from)
				continue
			}
			return l.kinded(token.SLASH, "/", from)
		}

		singles := map[rune]token.Kind{
			'(': token.LPAREN,
			')': token.RPAREN,
			'{': token.LBRACE,
			'}': token.RBRACE,
			'[': token.LBRACKET,
			']': token.RBRACKET,
			',': token.COMMA,
			';': token.SEMICOLON,
			'.': token.PERIOD,
			'+': token.PLUS,
			'-': token.MINUS,
			'*': token.STAR,
		}
		if kind, ok := singles[r]; ok {
			return l.kinded(kind, string(r), from)
		}

		switch r {
		case '=':
			if l.accept('=') {
				return l.kinded(token.EQ, "==", from)
			}
			return l.kinded(token.ASSIGN, "=", from)
		case '<':
			if l.accept('=') {
				return l.kinded(token.LESSEQ, "<=", from)
			}
			return l.kinded(token.LESS, "<", from)
		case '>':
			if l.accept('=') {
				return l.kinded(token.GREATEREQ, ">=", from)
			}
			return l.kinded(token.GREATER, ">", from)
		case '!':
			if l.accept('=') {
				return l.kinded(token.NEQ, "!=", from)
			}
			return l.kinded(token.BANG, "!", from)
		case '"':
			return l.lexString(from)
		}

		switch {
		case unicode.IsDigit(r):
			return l.lexNumber(r, from)
		case firstChar(r):
			return l.lexIdent(r, from)
		}

		panic(&errors.LexError{Msg: fmt.Sprintf("invalid character %q", r), Pos: from})
	}
}

func (l *Lexer) skipLineComment() {
	for {
		r, ok := l.read()
		if !ok {
			return
		}
		if r == '\n' {
			l.newline()
			return
		}
	}
}

func (l *Lexer) skipBlockComment(from token.Position) {
	for {
		r, ok := l.read()
		if !ok {
			panic(&errors.LexError{Msg: "unterminated block comment", Pos: from})
		}
		switch r {
		case '\n':
			l.newline()
		case '*':
			if l.accept('/') {
				return
			}
		}
	}
}

func (l *Lexer) lexString(from token.Position) token.Token {
	var lit []rune
	for {
		r, ok := l.read()
		if !ok {
			panic(&errors.LexError{Msg: "unterminated string literal", Pos: from})
		}
		switch r {
		case '"':
			return l.kinded(token.STRING, string(lit), from)
		case '\n':
			l.newline()
			lit = append(lit, r)
		case '\\':
			esc, ok := l.read()
			if !ok {
				panic(&errors.LexError{Msg: "unterminated string literal", Pos: from})
			}
			switch esc {
			case 'n':
				lit = append(lit, '\n')
			case 't':
				lit = append(lit, '\t')
			case '\\':
				lit = append(lit, '\\')
			case '"':
				lit = append(lit, '"')
			default:
				panic(&errors.LexError{
					Msg: fmt.Sprintf("invalid escape sequence \\%c", esc),
					Pos: l.pos,
				})
			}
		default:
			lit = append(lit, r)
		}
	}
}

func (l *Lexer) lexNumber(first rune, from token.Position) token.Token {
	lit := string(first)
	kind := token.INT
	for {
		r, ok := l.read()
		if !ok {
			break
		}
		if unicode.IsDigit(r) {
			lit += string(r)
			continue
		}
		// A dot only continues the number when a digit follows; `1.` is
		// the integer 1 followed by a period token.
		if r == '.' && kind == token.INT {
			byt, err := l.reader.Peek(1)
			if err == nil && byt[0] >= '0' && byt[0] <= '9' {
				kind = token.FLOAT
				lit += "."
				continue
			}
		}
		l.backup()
		break
	}
	return l.kinded(kind, lit, from)
}

func (l *Lexer) lexIdent(first rune, from token.Position) token.Token {
	lit := string(first)
	for {
		r, ok := l.read()
		if !ok {
			break
		}
		if !otherChar(r) {
			l.backup()
			break
		}
		lit += string(r)
	}
	if kind, ok := token.Keywords[lit]; ok {
		return l.kinded(kind, lit, from)
	}
	return l.kinded(token.IDENT, lit, from)
}
