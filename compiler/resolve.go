package compiler

import (
	"fmt"
	"strconv"

	"github.com/edsrzf/trunk/ast"
	"github.com/edsrzf/trunk/errors"
	"github.com/edsrzf/trunk/token"
)

// resolution carries everything the emission pass needs beyond the tree
// itself: the binding behind every name use and declaration, validated
// literal values, and per-method `this` usage.
type resolution struct {
	uses     map[any]*Symbol
	decls    map[any]*Symbol
	ints     map[*ast.IntLit]int64
	floats   map[*ast.FloatLit]float64
	thisUsed map[*ast.MethodDecl]bool
}

type resolver struct {
	table *SymbolTable
	res   *resolution

	inFunction bool
	method     *ast.MethodDecl
}

const globalDepth = 1

// resolve walks the program binding every identifier use to a declaration.
// Top-level functions and classes are declared in a forward pass so that
// definition order does not matter for calls; everything else resolves in
// source order. Failures raise *errors.ResolutionError.
func resolve(prog *ast.Program) *resolution {
	r := &resolver{
		table: NewSymbolTable(),
		res: &resolution{
			uses:     make(map[any]*Symbol),
			decls:    make(map[any]*Symbol),
			ints:     make(map[*ast.IntLit]int64),
			floats:   make(map[*ast.FloatLit]float64),
			thisUsed: make(map[*ast.MethodDecl]bool),
		},
	}

	r.declareBuiltin("print", "Print", -1)
	r.declareBuiltin("len", "Len", 1)

	r.table.Push() // global scope

	for _, stmt := range prog.Statements {
		switch decl := stmt.(type) {
		case *ast.FunctionDecl:
			sym := r.declare(decl.Name, SymbolFunction, len(decl.Params))
			r.res.decls[decl] = sym
		case *ast.ClassDecl:
			sym := r.declare(decl.Name, SymbolClass, -1)
			r.res.decls[decl] = sym
		}
	}

	for _, stmt := range prog.Statements {
		r.statement(stmt)
	}

	return r.res
}

func (r *resolver) declareBuiltin(name, target string, arity int) {
	sym, err := r.table.Declare(name, SymbolBuiltin, arity, token.Position{})
	if err != nil {
		panic(err)
	}
	sym.TargetName = target
}

func (r *resolver) declare(name ast.Identifier, kind SymbolKind, arity int) *Symbol {
	sym, err := r.table.Declare(name.Name, kind, arity, name.Pos.From)
	if err != nil {
		panic(err)
	}
	return sym
}

func (r *resolver) fail(pos token.Position, name string, format string, args ...any) {
	panic(&errors.ResolutionError{
		Msg:  fmt.Sprintf(format, args...),
		Name: name,
		Pos:  pos,
	})
}

func (r *resolver) statement(s ast.Statement) {
	switch stmt := s.(type) {
	case *ast.Let:
		// The value resolves before the name is in scope.
		r.expression(stmt.Value, false)
		sym := r.declare(stmt.Name, SymbolVar, -1)
		r.res.decls[stmt] = sym
	case *ast.FunctionDecl:
		r.functionBody(stmt.Params, stmt.Body)
	case *ast.ClassDecl:
		r.classBody(stmt)
	case *ast.If:
		r.expression(stmt.Cond, false)
		r.blockScoped(stmt.Then)
		if stmt.Else != nil {
			r.blockScoped(stmt.Else)
		}
	case *ast.While:
		r.expression(stmt.Cond, false)
		r.blockScoped(stmt.Body)
	case *ast.Return:
		if !r.inFunction {
			r.fail(stmt.Pos.From, "", "return outside of a function")
		}
		if stmt.Value != nil {
			r.expression(stmt.Value, false)
		}
	case *ast.Echo:
		for _, value := range stmt.Values {
			r.expression(value, false)
		}
	case *ast.ExprStmt:
		r.expression(stmt.Expr, true)
	default:
		panic(fmt.Sprintf("unhandled statement %T", s))
	}
}

func (r *resolver) blockScoped(b ast.Block) {
	r.table.Push()
	for _, stmt := range b {
		r.statement(stmt)
	}
	r.table.Pop()
}

func (r *resolver) functionBody(params []ast.Identifier, body ast.Block) {
	r.table.Push()
	for i := range params {
		sym := r.declare(params[i], SymbolParam, -1)
		r.res.decls[&params[i]] = sym
	}

	wasInFunction := r.inFunction
	r.inFunction = true
	for _, stmt := range body {
		r.statement(stmt)
	}
	r.inFunction = wasInFunction

	r.table.Pop()
}

func (r *resolver) classBody(class *ast.ClassDecl) {
	seen := make(map[string]*ast.MethodDecl)
	for _, method := range class.Methods {
		if prior, ok := seen[method.Name.Name]; ok {
			r.fail(method.Name.Pos.From, method.Name.Name,
				"method %s is already declared on class %s (at %s)",
				method.Name.Name, class.Name.Name, prior.Name.Pos.From)
		}
		seen[method.Name.Name] = method

		wasMethod := r.method
		r.method = method
		r.functionBody(method.Params, method.Body)
		r.method = wasMethod
	}
}

func (r *resolver) expression(e ast.Expression, statementPos bool) {
	switch expr := e.(type) {
	case *ast.IntLit:
		value, err := strconv.ParseInt(expr.Text, 10, 64)
		if err != nil {
			r.fail(expr.Pos.From, expr.Text, "integer literal %s cannot be represented exactly", expr.Text)
		}
		r.res.ints[expr] = value
	case *ast.FloatLit:
		value, err := strconv.ParseFloat(expr.Text, 64)
		if err != nil {
			r.fail(expr.Pos.From, expr.Text, "float literal %s cannot be represented exactly", expr.Text)
		}
		r.res.floats[expr] = value
	case *ast.StringLit, *ast.BoolLit:
	case *ast.ArrayLit:
		for _, item := range expr.Items {
			r.expression(item, false)
		}
	case *ast.Var:
		sym := r.lookupVar(expr.Name, expr.Pos.From)
		sym.Used = true
		r.res.uses[expr] = sym
	case *ast.This:
		if r.method == nil {
			r.fail(expr.Pos.From, "this", "this outside of a method")
		}
		r.res.thisUsed[r.method] = true
	case *ast.Prefix:
		r.expression(expr.Operand, false)
	case *ast.Infix:
		r.expression(expr.Left, false)
		r.expression(expr.Right, false)
	case *ast.Call:
		r.call(expr)
	case *ast.New:
		sym := r.table.Lookup(expr.Class.Name)
		if sym == nil {
			r.fail(expr.Class.Pos.From, expr.Class.Name, "undeclared class %s", expr.Class.Name)
		}
		if sym.Kind != SymbolClass {
			r.fail(expr.Class.Pos.From, expr.Class.Name, "%s is a %s, not a class", expr.Class.Name, sym.Kind)
		}
		sym.Used = true
		r.res.uses[expr] = sym
		for _, arg := range expr.Args {
			r.expression(arg, false)
		}
	case *ast.MethodCall:
		r.expression(expr.Recv, false)
		for _, arg := range expr.Args {
			r.expression(arg, false)
		}
	case *ast.Property:
		r.expression(expr.Recv, false)
	case *ast.Index:
		r.expression(expr.Recv, false)
		r.expression(expr.Key, false)
	case *ast.Assign:
		if !statementPos {
			r.fail(expr.Pos.From, expr.Name.Name, "assignment cannot be used as a value")
		}
		sym := r.lookupVar(expr.Name.Name, expr.Name.Pos.From)
		sym.Assigned = true
		r.res.uses[expr] = sym
		r.expression(expr.Value, false)
	case *ast.SetProperty:
		r.expression(expr.Recv, false)
		r.expression(expr.Value, false)
	case *ast.SetIndex:
		r.expression(expr.Recv, false)
		r.expression(expr.Key, false)
		r.expression(expr.Value, false)
	default:
		panic(fmt.Sprintf("unhandled expression %T", e))
	}
}

// lookupVar resolves a name that must be a variable or parameter. Top-level
// variables are main-scope locals in the target and are not visible inside
// function bodies.
func (r *resolver) lookupVar(name string, pos token.Position) *Symbol {
	sym := r.table.Lookup(name)
	if sym == nil {
		r.fail(pos, name, "undeclared name %s", name)
	}
	switch sym.Kind {
	case SymbolVar, SymbolParam:
	default:
		r.fail(pos, name, "%s is a %s, not a variable", name, sym.Kind)
	}
	if r.inFunction && sym.Kind == SymbolVar && sym.Depth <= globalDepth {
		r.fail(pos, name, "top-level variable %s is not visible inside a function", name)
	}
	return sym
}

func (r *resolver) call(expr *ast.Call) {
	sym := r.table.Lookup(expr.Function.Name)
	if sym == nil {
		r.fail(expr.Function.Pos.From, expr.Function.Name, "undeclared function %s", expr.Function.Name)
	}
	switch sym.Kind {
	case SymbolFunction, SymbolBuiltin:
	case SymbolClass:
		r.fail(expr.Function.Pos.From, expr.Function.Name, "%s is a class; construct it with new", expr.Function.Name)
	default:
		r.fail(expr.Function.Pos.From, expr.Function.Name, "%s is a %s, not a function", expr.Function.Name, sym.Kind)
	}
	if sym.Arity >= 0 && len(expr.Args) != sym.Arity {
		r.fail(expr.Function.Pos.From, expr.Function.Name,
			"%s expects %d arguments, got %d", expr.Function.Name, sym.Arity, len(expr.Args))
	}
	sym.Used = true
	r.res.uses[expr] = sym
	for _, arg := range expr.Args {
		r.expression(arg, false)
	}
}
