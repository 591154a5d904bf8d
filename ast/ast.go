// Package ast holds the syntax tree for trunk scripts. The node set is
// closed: statements and expressions are tagged variants dispatched by type
// switches in the compiler. Nodes own their children exclusively and keep
// their source span for diagnostics.
package ast

import "github.com/edsrzf/trunk/token"

// Program is the root node: an ordered sequence of top-level statements.
type Program struct {
	Statements []Statement
}

type Identifier struct {
	Name string
	Pos  token.Span
}

type Statement interface {
	is_Statement()
}

type Expression interface {
	is_Expression()
}

// Block is a brace-delimited statement sequence.
type Block []Statement

type Let struct {
	Name  Identifier
	Value Expression
	Pos   token.Span
}

func (v *Let) is_Statement() {}

type FunctionDecl struct {
	Name   Identifier
	Params []Identifier
	Body   Block
	Pos    token.Span
}

func (v *FunctionDecl) is_Statement() {}

type MethodFlag int

const (
	FlagPublic MethodFlag = iota
	FlagPrivate
	FlagProtected
	FlagStatic
)

func (f MethodFlag) String() string {
	data := map[MethodFlag]string{
		FlagPublic:    "public",
		FlagPrivate:   "private",
		FlagProtected: "protected",
		FlagStatic:    "static",
	}
	return data[f]
}

type MethodDecl struct {
	Name   Identifier
	Params []Identifier
	Body   Block
	Flags  []MethodFlag
	Pos    token.Span
}

type ClassDecl struct {
	Name    Identifier
	Methods []*MethodDecl
	Pos     token.Span
}

func (v *ClassDecl) is_Statement() {}

// If holds a branch; an else-if chain is represented as an Else block
// containing a single nested If.
type If struct {
	Cond Expression
	Then Block
	Else Block
	Pos  token.Span
}

func (v *If) is_Statement() {}

type While struct {
	Cond Expression
	Body Block
	Pos  token.Span
}

func (v *While) is_Statement() {}

// Return with a nil Value is a bare `return;`.
type Return struct {
	Value Expression
	Pos   token.Span
}

func (v *Return) is_Statement() {}

type Echo struct {
	Values []Expression
	Pos    token.Span
}

func (v *Echo) is_Statement() {}

type ExprStmt struct {
	Expr Expression
}

func (v *ExprStmt) is_Statement() {}

// IntLit and FloatLit keep the literal text; the compiler's resolution pass
// checks representability in the target before any value is emitted.
type IntLit struct {
	Text string
	Pos  token.Span
}

func (v *IntLit) is_Expression() {}

type FloatLit struct {
	Text string
	Pos  token.Span
}

func (v *FloatLit) is_Expression() {}

type StringLit struct {
	Value string
	Pos   token.Span
}

func (v *StringLit) is_Expression() {}

type BoolLit struct {
	Value bool
	Pos   token.Span
}

func (v *BoolLit) is_Expression() {}

type ArrayLit struct {
	Items []Expression
	Pos   token.Span
}

func (v *ArrayLit) is_Expression() {}

// Var is a read of a named binding.
type Var struct {
	Name string
	Pos  token.Span
}

func (v *Var) is_Expression() {}

type This struct {
	Pos token.Span
}

func (v *This) is_Expression() {}

type Prefix struct {
	Op      Op
	Operand Expression
	Pos     token.Span
}

func (v *Prefix) is_Expression() {}

type Infix struct {
	Op    Op
	Left  Expression
	Right Expression
	Pos   token.Span
}

func (v *Infix) is_Expression() {}

type Call struct {
	Function Identifier
	Args     []Expression
	Pos      token.Span
}

func (v *Call) is_Expression() {}

type New struct {
	Class Identifier
	Args  []Expression
	Pos   token.Span
}

func (v *New) is_Expression() {}

type MethodCall struct {
	Recv Expression
	Name Identifier
	Args []Expression
	Pos  token.Span
}

func (v *MethodCall) is_Expression() {}

type Property struct {
	Recv Expression
	Name Identifier
	Pos  token.Span
}

func (v *Property) is_Expression() {}

type Index struct {
	Recv Expression
	Key  Expression
	Pos  token.Span
}

func (v *Index) is_Expression() {}

type Assign struct {
	Name  Identifier
	Value Expression
	Pos   token.Span
}

func (v *Assign) is_Expression() {}

type SetProperty struct {
	Recv  Expression
	Name  Identifier
	Value Expression
	Pos   token.Span
}

func (v *SetProperty) is_Expression() {}

type SetIndex struct {
	Recv  Expression
	Key   Expression
	Value Expression
	Pos   token.Span
}

func (v *SetIndex) is_Expression() {}
