package lexer

import (
	"strings"
	"testing"

	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/errors"
	"github.com/edsrzf/trunk/token"
)

func lexAll(t *testing.T, input string) []token.Token {
	t.Helper()
	tokens, err := New(strings.NewReader(input)).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", input, err)
	}
	return tokens
}

func TestLex(t *testing.T) {
	tests := []struct {
		input string
		kinds []token.Kind
	}{
		{
			input: "let x = 1 + 2;",
			kinds: []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.INT, token.PLUS, token.INT, token.SEMICOLON, token.EOF},
		},
		{
			input: "print(x);",
			kinds: []token.Kind{token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.SEMICOLON, token.EOF},
		},
		{
			input: "if (a <= b) { } else { }",
			kinds: []token.Kind{token.IF, token.LPAREN, token.IDENT, token.LESSEQ, token.IDENT, token.RPAREN, token.LBRACE, token.RBRACE, token.ELSE, token.LBRACE, token.RBRACE, token.EOF},
		},
		{
			input: "a == b != c < d > e",
			kinds: []token.Kind{token.IDENT, token.EQ, token.IDENT, token.NEQ, token.IDENT, token.LESS, token.IDENT, token.GREATER, token.IDENT, token.EOF},
		},
		{
			input: "class Foo { public static function bar() {} }",
			kinds: []token.Kind{token.CLASS, token.IDENT, token.LBRACE, token.PUBLIC, token.STATIC, token.FUNCTION, token.IDENT, token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.RBRACE, token.EOF},
		},
		{
			input: "new Foo().bar[0] = !true;",
			kinds: []token.Kind{token.NEW, token.IDENT, token.LPAREN, token.RPAREN, token.PERIOD, token.IDENT, token.LBRACKET, token.INT, token.RBRACKET, token.ASSIGN, token.BANG, token.TRUE, token.SEMICOLON, token.EOF},
		},
		{
			input: "1.5 / 2 * 3.25",
			kinds: []token.Kind{token.FLOAT, token.SLASH, token.INT, token.STAR, token.FLOAT, token.EOF},
		},
		{
			input: "// comment\necho \"hi\"; /* block\ncomment */ while",
			kinds: []token.Kind{token.ECHO, token.STRING, token.SEMICOLON, token.WHILE, token.EOF},
		},
	}

	for _, tt := range tests {
		tokens := lexAll(t, tt.input)
		if len(tokens) != len(tt.kinds) {
			t.Errorf("%q: got %d tokens, want %d: %v", tt.input, len(tokens), len(tt.kinds), tokens)
			continue
		}
		for i, kind := range tt.kinds {
			if tokens[i].Kind != kind {
				t.Errorf("%q: token %d is %s, want %s", tt.input, i, tokens[i].Kind, kind)
			}
		}
	}
}

func TestLexLiterals(t *testing.T) {
	tokens := lexAll(t, `let pi = 3.14; echo "a\n\"b\"", 42;`)
	want := map[int]string{
		1: "pi",
		3: "3.14",
		6: "a\n\"b\"",
		8: "42",
	}
	for i, lit := range want {
		if tokens[i].Literal != lit {
			t.Errorf("token %d literal = %q, want %q", i, tokens[i].Literal, lit)
		}
	}
}

func TestLexPositions(t *testing.T) {
	tokens := lexAll(t, "let x = 1;\n  echo x;")

	first := tokens[0].Span
	if first.From != (token.Position{Line: 1, Column: 1}) || first.To != (token.Position{Line: 1, Column: 3}) {
		t.Errorf("let span = %s", first)
	}
	semi := tokens[4].Span
	if semi.From != (token.Position{Line: 1, Column: 10}) {
		t.Errorf("first semicolon at %s, want 1:10", semi.From)
	}
	echo := tokens[5].Span
	if echo.From != (token.Position{Line: 2, Column: 3}) {
		t.Errorf("echo at %s, want 2:3", echo.From)
	}
}

func TestLexFloatThenPeriod(t *testing.T) {
	tokens := lexAll(t, "1.foo")
	kinds := []token.Kind{token.INT, token.PERIOD, token.IDENT, token.EOF}
	for i, kind := range kinds {
		if tokens[i].Kind != kind {
			t.Fatalf("token %d is %s, want %s (tokens: %v)", i, tokens[i].Kind, kind, tokens)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		pos   token.Position
	}{
		{`let s = "abc`, "unterminated string literal", token.Position{Line: 1, Column: 9}},
		{"/* never closed", "unterminated block comment", token.Position{Line: 1, Column: 1}},
		{"let ? = 1;", "invalid character '?'", token.Position{Line: 1, Column: 5}},
		{`"bad \q escape"`, `invalid escape sequence \q`, token.Position{Line: 1, Column: 7}},
	}

	for _, tt := range tests {
		_, err := New(strings.NewReader(tt.input)).Tokenize()
		if err == nil {
			t.Errorf("%q: expected error", tt.input)
			continue
		}
		lexErr, ok := tracerr.Unwrap(err).(*errors.LexError)
		if !ok {
			t.Errorf("%q: error is %T, want *errors.LexError", tt.input, err)
			continue
		}
		if lexErr.Msg != tt.msg {
			t.Errorf("%q: message %q, want %q", tt.input, lexErr.Msg, tt.msg)
		}
		if lexErr.Pos != tt.pos {
			t.Errorf("%q: position %s, want %s", tt.input, lexErr.Pos, tt.pos)
		}
	}
}
