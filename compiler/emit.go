package compiler

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/edsrzf/trunk/ast"
)

// opFuncs maps every operator to the runtime helper it lowers to.
var opFuncs = map[ast.Op]string{
	ast.OpAdd:            "Add",
	ast.OpSub:            "Sub",
	ast.OpMul:            "Mul",
	ast.OpDiv:            "Div",
	ast.OpLessThan:       "LessThan",
	ast.OpGreaterThan:    "GreaterThan",
	ast.OpLessOrEqual:    "LessOrEqual",
	ast.OpGreaterOrEqual: "GreaterOrEqual",
	ast.OpEqual:          "Equal",
	ast.OpNotEqual:       "NotEqual",
	ast.OpNeg:            "Neg",
	ast.OpNot:            "Not",
}

type emitter struct {
	res            *resolution
	runtimeImport  string
	runtimeTouched bool
}

// emit lowers a resolved program to a single main-package file and reports
// whether the runtime package was referenced. Top-level functions become
// package-level functions over runtime values; class registrations are
// hoisted to the top of main in declaration order so construction works
// regardless of where the class is declared, then the remaining top-level
// statements run in source order.
func emit(prog *ast.Program, res *resolution, runtimeImport string) (*jen.File, bool) {
	e := &emitter{res: res, runtimeImport: runtimeImport}

	file := jen.NewFile("main")
	file.HeaderComment("Code generated by trunk; DO NOT EDIT.")
	file.ImportName(runtimeImport, "trunk")

	var registrations, mainBody []jen.Code
	for _, stmt := range prog.Statements {
		switch decl := stmt.(type) {
		case *ast.FunctionDecl:
			file.Func().Id(e.res.decls[decl].TargetName).
				Params(e.params(decl.Params)...).
				Add(e.rt("Value")).
				Block(e.functionBody(decl.Body)...)
		case *ast.ClassDecl:
			registrations = append(registrations, e.registerClass(decl))
		default:
			mainBody = append(mainBody, e.statement(stmt)...)
		}
	}

	file.Func().Id("main").Params().Block(append(registrations, mainBody...)...)
	return file, e.runtimeTouched
}

// rt references a name exported by the runtime package.
func (e *emitter) rt(name string) *jen.Statement {
	e.runtimeTouched = true
	return jen.Qual(e.runtimeImport, name)
}

// params renders a declared parameter list. Parameters the body neither
// reads nor writes are emitted as blanks; a written parameter keeps its name
// so assignments to it still resolve.
func (e *emitter) params(params []ast.Identifier) []jen.Code {
	out := make([]jen.Code, len(params))
	for i := range params {
		sym := e.res.decls[&params[i]]
		name := sym.TargetName
		if !sym.Used && !sym.Assigned {
			name = "_"
		}
		out[i] = jen.Id(name).Add(e.rt("Value"))
	}
	return out
}

// functionBody renders a block and guarantees the function returns a value
// on every path by appending a trailing null return when the body does not
// already end with one.
func (e *emitter) functionBody(body ast.Block) []jen.Code {
	out := e.block(body)
	if len(body) > 0 {
		if _, ok := body[len(body)-1].(*ast.Return); ok {
			return out
		}
	}
	return append(out, jen.Return(e.rt("Null")))
}

func (e *emitter) block(body ast.Block) []jen.Code {
	out := make([]jen.Code, 0, len(body))
	for _, stmt := range body {
		out = append(out, e.statement(stmt)...)
	}
	return out
}

// statement lowers one statement, possibly to several target statements: a
// binding that is never read gets a blank read appended, flat in the same
// scope so later assignments to it still resolve.
func (e *emitter) statement(s ast.Statement) []jen.Code {
	switch stmt := s.(type) {
	case *ast.Let:
		sym := e.res.decls[stmt]
		out := []jen.Code{jen.Id(sym.TargetName).Op(":=").Add(e.expression(stmt.Value))}
		if !sym.Used {
			out = append(out, jen.Id("_").Op("=").Id(sym.TargetName))
		}
		return out
	case *ast.If:
		out := jen.If(e.rt("Truthy").Call(e.expression(stmt.Cond))).Block(e.block(stmt.Then)...)
		if stmt.Else != nil {
			out = out.Else().Block(e.block(stmt.Else)...)
		}
		return []jen.Code{out}
	case *ast.While:
		return []jen.Code{jen.For(e.rt("Truthy").Call(e.expression(stmt.Cond))).Block(e.block(stmt.Body)...)}
	case *ast.Return:
		if stmt.Value == nil {
			return []jen.Code{jen.Return(e.rt("Null"))}
		}
		return []jen.Code{jen.Return(e.expression(stmt.Value))}
	case *ast.Echo:
		return []jen.Code{e.rt("Echo").Call(e.expressions(stmt.Values)...)}
	case *ast.ExprStmt:
		return []jen.Code{e.expressionStatement(stmt.Expr)}
	default:
		panic(fmt.Sprintf("unhandled statement %T", s))
	}
}

// expressionStatement lowers an expression in statement position. Assignments
// become target assignments, calls stand alone, and anything without a side
// effect is discarded into a blank so the result is still legal.
func (e *emitter) expressionStatement(x ast.Expression) jen.Code {
	switch expr := x.(type) {
	case *ast.Assign:
		sym := e.res.uses[expr]
		return jen.Id(sym.TargetName).Op("=").Add(e.expression(expr.Value))
	case *ast.SetProperty, *ast.SetIndex, *ast.Call, *ast.MethodCall, *ast.New:
		return e.expression(expr)
	default:
		return jen.Id("_").Op("=").Add(e.expression(expr))
	}
}

func (e *emitter) expressions(xs []ast.Expression) []jen.Code {
	out := make([]jen.Code, len(xs))
	for i, x := range xs {
		out[i] = e.expression(x)
	}
	return out
}

func (e *emitter) expression(x ast.Expression) jen.Code {
	switch expr := x.(type) {
	case *ast.IntLit:
		return e.rt("Int").Call(jen.Lit(e.res.ints[expr]))
	case *ast.FloatLit:
		return e.rt("Float").Call(jen.Lit(e.res.floats[expr]))
	case *ast.StringLit:
		return e.rt("String").Call(jen.Lit(expr.Value))
	case *ast.BoolLit:
		return e.rt("Bool").Call(jen.Lit(expr.Value))
	case *ast.ArrayLit:
		return e.rt("NewArray").Call(e.expressions(expr.Items)...)
	case *ast.Var:
		return jen.Id(e.res.uses[expr].TargetName)
	case *ast.This:
		return jen.Id("this")
	case *ast.Prefix:
		return e.rt(opFuncs[expr.Op]).Call(e.expression(expr.Operand))
	case *ast.Infix:
		return e.rt(opFuncs[expr.Op]).Call(e.expression(expr.Left), e.expression(expr.Right))
	case *ast.Call:
		sym := e.res.uses[expr]
		if sym.Kind == SymbolBuiltin {
			return e.rt(sym.TargetName).Call(e.expressions(expr.Args)...)
		}
		return jen.Id(sym.TargetName).Call(e.expressions(expr.Args)...)
	case *ast.New:
		args := append([]jen.Code{jen.Lit(expr.Class.Name)}, e.expressions(expr.Args)...)
		return e.rt("New").Call(args...)
	case *ast.MethodCall:
		args := append([]jen.Code{e.expression(expr.Recv), jen.Lit(expr.Name.Name)}, e.expressions(expr.Args)...)
		return e.rt("CallMethod").Call(args...)
	case *ast.Property:
		return e.rt("GetProperty").Call(e.expression(expr.Recv), jen.Lit(expr.Name.Name))
	case *ast.Index:
		return e.rt("Index").Call(e.expression(expr.Recv), e.expression(expr.Key))
	case *ast.SetProperty:
		return e.rt("SetProperty").Call(e.expression(expr.Recv), jen.Lit(expr.Name.Name), e.expression(expr.Value))
	case *ast.SetIndex:
		return e.rt("SetIndex").Call(e.expression(expr.Recv), e.expression(expr.Key), e.expression(expr.Value))
	default:
		panic(fmt.Sprintf("unhandled expression %T", x))
	}
}

// registerClass renders the RegisterClass call for one class declaration.
// Class names cross into the target as string keys, so they need no
// mangling; methods keep their declared names for the same reason.
func (e *emitter) registerClass(class *ast.ClassDecl) jen.Code {
	methods := jen.Dict{}
	for _, method := range class.Methods {
		methods[jen.Lit(method.Name.Name)] = e.method(method)
	}
	return e.rt("RegisterClass").Call(
		jen.Lit(class.Name.Name),
		jen.Map(jen.String()).Add(e.rt("Method")).Values(methods),
	)
}

// method renders one method as a closure over the runtime calling
// convention: the receiver plus a variadic argument slice, unpacked into
// the declared parameters up front.
func (e *emitter) method(method *ast.MethodDecl) jen.Code {
	this := "this"
	if !e.res.thisUsed[method] {
		this = "_"
	}

	var body []jen.Code
	for i := range method.Params {
		sym := e.res.decls[&method.Params[i]]
		if !sym.Used && !sym.Assigned {
			continue
		}
		body = append(body, jen.Id(sym.TargetName).Op(":=").Add(e.rt("Arg")).Call(jen.Id("args"), jen.Lit(i)))
		if !sym.Used {
			body = append(body, jen.Id("_").Op("=").Id(sym.TargetName))
		}
	}
	body = append(body, e.functionBody(method.Body)...)

	return jen.Func().
		Params(
			jen.Id(this).Add(e.rt("Value")),
			jen.Id("args").Op("...").Add(e.rt("Value")),
		).
		Add(e.rt("Value")).
		Block(body...)
}
