package token

import "fmt"

type Kind int

const (
	EOF Kind = iota

	IDENT
	INT
	FLOAT
	STRING

	LET
	FUNCTION
	CLASS
	IF
	ELSE
	WHILE
	RETURN
	ECHO
	NEW
	THIS
	TRUE
	FALSE
	PUBLIC
	PRIVATE
	PROTECTED
	STATIC

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	SEMICOLON
	PERIOD

	ASSIGN
	PLUS
	MINUS
	STAR
	SLASH
	LESS
	GREATER
	LESSEQ
	GREATEREQ
	EQ
	NEQ
	BANG
)

func (k Kind) String() string {
	data := map[Kind]string{
		EOF:       "EOF",
		IDENT:     "IDENT",
		INT:       "INT",
		FLOAT:     "FLOAT",
		STRING:    "STRING",
		LET:       "LET",
		FUNCTION:  "FUNCTION",
		CLASS:     "CLASS",
		IF:        "IF",
		ELSE:      "ELSE",
		WHILE:     "WHILE",
		RETURN:    "RETURN",
		ECHO:      "ECHO",
		NEW:       "NEW",
		THIS:      "THIS",
		TRUE:      "TRUE",
		FALSE:     "FALSE",
		PUBLIC:    "PUBLIC",
		PRIVATE:   "PRIVATE",
		PROTECTED: "PROTECTED",
		STATIC:    "STATIC",
		LPAREN:    "LPAREN",
		RPAREN:    "RPAREN",
		LBRACE:    "LBRACE",
		RBRACE:    "RBRACE",
		LBRACKET:  "LBRACKET",
		RBRACKET:  "RBRACKET",
		COMMA:     "COMMA",
		SEMICOLON: "SEMICOLON",
		PERIOD:    "PERIOD",
		ASSIGN:    "ASSIGN",
		PLUS:      "PLUS",
		MINUS:     "MINUS",
		STAR:      "STAR",
		SLASH:     "SLASH",
		LESS:      "LESS",
		GREATER:   "GREATER",
		LESSEQ:    "LESSEQ",
		GREATEREQ: "GREATEREQ",
		EQ:        "EQ",
		NEQ:       "NEQ",
		BANG:      "BANG",
	}
	return data[k]
}

// Keywords maps identifier spellings to their keyword kinds.
var Keywords = map[string]Kind{
	"let":       LET,
	"function":  FUNCTION,
	"class":     CLASS,
	"if":        IF,
	"else":      ELSE,
	"while":     WHILE,
	"return":    RETURN,
	"echo":      ECHO,
	"new":       NEW,
	"this":      THIS,
	"true":      TRUE,
	"false":     FALSE,
	"public":    PUBLIC,
	"private":   PRIVATE,
	"protected": PROTECTED,
	"static":    STATIC,
}

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Span struct {
	From Position
	To   Position
}

func (s Span) String() string {
	return fmt.Sprintf("%s - %s", s.From, s.To)
}

// Token is a single lexeme. Immutable once produced.
type Token struct {
	Kind    Kind
	Literal string
	Span    Span
}

// Name describes the token for diagnostics: identifiers and literals by
// their text, everything else by kind.
func (t Token) Name() string {
	switch t.Kind {
	case IDENT, INT, FLOAT, STRING:
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	}
	return t.Kind.String()
}
