package ast

import "github.com/edsrzf/trunk/token"

// Op is the closed set of prefix and infix operators.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpLessThan
	OpGreaterThan
	OpLessOrEqual
	OpGreaterOrEqual
	OpEqual
	OpNotEqual
	OpNeg
	OpNot
)

func (o Op) String() string {
	data := map[Op]string{
		OpAdd:            "+",
		OpSub:            "-",
		OpMul:            "*",
		OpDiv:            "/",
		OpLessThan:       "<",
		OpGreaterThan:    ">",
		OpLessOrEqual:    "<=",
		OpGreaterOrEqual: ">=",
		OpEqual:          "==",
		OpNotEqual:       "!=",
		OpNeg:            "-",
		OpNot:            "!",
	}
	return data[o]
}

// InfixOp maps an operator token to its Op. Only called for kinds the
// parser's binding-power table accepts.
func InfixOp(k token.Kind) Op {
	data := map[token.Kind]Op{
		token.PLUS:      OpAdd,
		token.MINUS:     OpSub,
		token.STAR:      OpMul,
		token.SLASH:     OpDiv,
		token.LESS:      OpLessThan,
		token.GREATER:   OpGreaterThan,
		token.LESSEQ:    OpLessOrEqual,
		token.GREATEREQ: OpGreaterOrEqual,
		token.EQ:        OpEqual,
		token.NEQ:       OpNotEqual,
	}
	op, ok := data[k]
	if !ok {
		panic("no infix operator for token kind " + k.String())
	}
	return op
}
