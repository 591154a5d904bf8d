package compiler

import (
	goast "go/ast"
	goparser "go/parser"
	gotoken "go/token"
	"strings"
	"testing"

	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/errors"
	"github.com/edsrzf/trunk/lexer"
	"github.com/edsrzf/trunk/parser"
)

func compile(t *testing.T, input string) *CompiledUnit {
	t.Helper()
	prog, err := parser.New(lexer.New(strings.NewReader(input))).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	unit, err := New().Compile(prog)
	if err != nil {
		t.Fatalf("Compile(%q): %v", input, err)
	}

	// The generated file must always be syntactically valid target source.
	fset := gotoken.NewFileSet()
	if _, err := goparser.ParseFile(fset, "main.go", unit.Source, 0); err != nil {
		t.Fatalf("Compile(%q) produced invalid source: %v\n%s", input, err, unit.Source)
	}
	return unit
}

func compileErr(t *testing.T, input string) *errors.ResolutionError {
	t.Helper()
	prog, err := parser.New(lexer.New(strings.NewReader(input))).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	unit, err := New().Compile(prog)
	if err == nil {
		t.Fatalf("Compile(%q): expected error, got:\n%s", input, unit.Source)
	}
	if unit != nil {
		t.Errorf("Compile(%q): unit should be nil on error", input)
	}
	rerr, ok := tracerr.Unwrap(err).(*errors.ResolutionError)
	if !ok {
		t.Fatalf("Compile(%q): error is %T, want *errors.ResolutionError", input, err)
	}
	return rerr
}

func TestCompileLowering(t *testing.T) {
	tests := []struct {
		input    string
		contains []string
	}{
		{
			input: "let x = 1 + 2; print(x);",
			contains: []string{
				"x := trunk.Add(trunk.Int(1), trunk.Int(2))",
				"trunk.Print(x)",
			},
		},
		{
			input:    `echo 1 < 2, "done";`,
			contains: []string{`trunk.Echo(trunk.LessThan(trunk.Int(1), trunk.Int(2)), trunk.String("done"))`},
		},
		{
			input: `
			function double(n) {
				return n + n;
			}
			print(double(21));`,
			contains: []string{
				"func double(n trunk.Value) trunk.Value",
				"return trunk.Add(n, n)",
				"trunk.Print(double(trunk.Int(21)))",
			},
		},
		{
			input: `
			let i = 0;
			while (i < 3) {
				i = i + 1;
			}
			print(i);`,
			contains: []string{
				"for trunk.Truthy(trunk.LessThan(i, trunk.Int(3)))",
				"i = trunk.Add(i, trunk.Int(1))",
			},
		},
		{
			input: `
			if (true) {
				echo 1;
			} else {
				echo 2;
			}`,
			contains: []string{
				"if trunk.Truthy(trunk.Bool(true))",
				"} else {",
			},
		},
		{
			input: `let xs = [1, 2.5]; xs[0] = len(xs); print(xs[0]);`,
			contains: []string{
				"xs := trunk.NewArray(trunk.Int(1), trunk.Float(2.5))",
				"trunk.SetIndex(xs, trunk.Int(0), trunk.Len(xs))",
				"trunk.Index(xs, trunk.Int(0))",
			},
		},
	}

	for _, tt := range tests {
		unit := compile(t, tt.input)
		for _, want := range tt.contains {
			if !strings.Contains(unit.Source, want) {
				t.Errorf("Compile(%q): output missing %q:\n%s", tt.input, want, unit.Source)
			}
		}
	}
}

func TestCompileClass(t *testing.T) {
	unit := compile(t, `
	class Counter {
		public function bump(by) {
			this.count = this.count + by;
		}
	}
	let c = new Counter();
	c.bump(2);
	echo c.count;`)

	for _, want := range []string{
		`trunk.RegisterClass("Counter", map[string]trunk.Method{"bump": func(this trunk.Value, args ...trunk.Value) trunk.Value`,
		"by := trunk.Arg(args, 0)",
		`trunk.SetProperty(this, "count", trunk.Add(trunk.GetProperty(this, "count"), by))`,
		`c := trunk.New("Counter")`,
		`trunk.CallMethod(c, "bump", trunk.Int(2))`,
		`trunk.GetProperty(c, "count")`,
	} {
		if !strings.Contains(unit.Source, want) {
			t.Errorf("output missing %q:\n%s", want, unit.Source)
		}
	}
}

func TestCompileNameMangling(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		// Target keywords grow a trailing underscore.
		{"let type = 1; print(type);", "type_ := trunk.Int(1)"},
		// Names the generated scaffolding claims are escaped too.
		{"function main() { return 0; } print(main());", "func main_() trunk.Value"},
		// Shadowing declarations stay distinct in the flat target scope.
		{"let x = 1; if (true) { let x = 2; echo x; } echo x;", "x_ := trunk.Int(2)"},
	}

	for _, tt := range tests {
		unit := compile(t, tt.input)
		if !strings.Contains(unit.Source, tt.contains) {
			t.Errorf("Compile(%q): output missing %q:\n%s", tt.input, tt.contains, unit.Source)
		}
	}
}

func TestCompileUnusedBindings(t *testing.T) {
	unit := compile(t, "let x = 1;")
	if !strings.Contains(unit.Source, "_ = x") {
		t.Errorf("unused variable not blanked:\n%s", unit.Source)
	}

	unit = compile(t, "function f(a, b) { return a; } print(f(1, 2));")
	if !strings.Contains(unit.Source, "func f(a trunk.Value, _ trunk.Value) trunk.Value") {
		t.Errorf("unused parameter not blanked:\n%s", unit.Source)
	}
}

func TestCompileWriteOnlyBindings(t *testing.T) {
	unit := compile(t, "let x = 1; x = 2;")
	for _, want := range []string{"x := trunk.Int(1)", "_ = x", "x = trunk.Int(2)"} {
		if !strings.Contains(unit.Source, want) {
			t.Errorf("output missing %q:\n%s", want, unit.Source)
		}
	}
	// The declaration must share a scope with the later assignment, so no
	// bare block may wrap it.
	fset := gotoken.NewFileSet()
	file, err := goparser.ParseFile(fset, "main.go", unit.Source, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, decl := range file.Decls {
		fn, ok := decl.(*goast.FuncDecl)
		if !ok || fn.Name.Name != "main" {
			continue
		}
		for _, stmt := range fn.Body.List {
			if _, ok := stmt.(*goast.BlockStmt); ok {
				t.Errorf("main body nests a declaration in a bare block:\n%s", unit.Source)
			}
		}
	}

	unit = compile(t, "function f(a) { a = 1; return 2; } print(f(9));")
	for _, want := range []string{
		"func f(a trunk.Value) trunk.Value",
		"a = trunk.Int(1)",
	} {
		if !strings.Contains(unit.Source, want) {
			t.Errorf("output missing %q:\n%s", want, unit.Source)
		}
	}

	unit = compile(t, `
	class C {
		public function put(v) {
			v = 1;
		}
	}
	let c = new C();
	c.put(3);`)
	for _, want := range []string{
		"v := trunk.Arg(args, 0)",
		"_ = v",
		"v = trunk.Int(1)",
	} {
		if !strings.Contains(unit.Source, want) {
			t.Errorf("output missing %q:\n%s", want, unit.Source)
		}
	}
}

func TestCompileClassRegistrationOrder(t *testing.T) {
	unit := compile(t, `
	let a = new Foo();
	print(a);
	class Foo {
		public function m() {
			return 1;
		}
	}`)

	registered := strings.Index(unit.Source, `trunk.RegisterClass("Foo"`)
	constructed := strings.Index(unit.Source, `trunk.New("Foo")`)
	if registered < 0 || constructed < 0 {
		t.Fatalf("output missing registration or construction:\n%s", unit.Source)
	}
	if registered > constructed {
		t.Errorf("class constructed before it is registered:\n%s", unit.Source)
	}
}

func TestCompileImports(t *testing.T) {
	unit := compile(t, "print(1);")
	if len(unit.Imports) != 1 || unit.Imports[0] != DefaultRuntimeImport {
		t.Errorf("Imports = %v, want [%s]", unit.Imports, DefaultRuntimeImport)
	}

	override := &Compiler{RuntimeImport: "example.com/other-runtime"}
	prog, err := parser.New(lexer.New(strings.NewReader("print(1);"))).Parse()
	if err != nil {
		t.Fatal(err)
	}
	unit, err = override.Compile(prog)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(unit.Source, `"example.com/other-runtime"`) {
		t.Errorf("override import missing:\n%s", unit.Source)
	}
	if len(unit.Imports) != 1 || unit.Imports[0] != "example.com/other-runtime" {
		t.Errorf("Imports = %v", unit.Imports)
	}
}

func TestCompileDeterministic(t *testing.T) {
	input := `
	class Point {
		public function move(dx, dy) {
			this.x = this.x + dx;
			this.y = this.y + dy;
		}
		public function show() {
			echo this.x, this.y;
		}
	}
	let p = new Point();
	p.move(1, 2);
	p.show();`

	first := compile(t, input)
	for i := 0; i < 10; i++ {
		next := compile(t, input)
		if next.Source != first.Source {
			t.Fatalf("compile %d produced different output", i)
		}
	}
}

func TestCompileResolutionErrors(t *testing.T) {
	tests := []struct {
		input string
		name  string
		msg   string
	}{
		{"print(y);", "y", "undeclared name y"},
		{"let x = 1; let x = 2;", "x", "variable x is already declared in this scope (at 1:5)"},
		{"frob(1);", "frob", "undeclared function frob"},
		{"let f = 1; f(2);", "f", "f is a variable, not a function"},
		{"class C {} C();", "C", "C is a class; construct it with new"},
		{"let n = new missing();", "missing", "undeclared class missing"},
		{"function f() {} let x = new f();", "f", "f is a function, not a class"},
		{"function f(a) {} f(1, 2);", "f", "f expects 1 arguments, got 2"},
		{"len(1, 2);", "len", "len expects 1 arguments, got 2"},
		{"return 1;", "", "return outside of a function"},
		{"echo this;", "this", "this outside of a method"},
		{"let x = 1; let y = (x = 2);", "x", "assignment cannot be used as a value"},
		{"let g = 1; function f() { return g; } print(f());", "g", "top-level variable g is not visible inside a function"},
		{"let x = 9223372036854775808;", "9223372036854775808", "integer literal 9223372036854775808 cannot be represented exactly"},
		{"class C { public function m() {} private function m() {} }", "m", "method m is already declared on class C (at 1:27)"},
	}

	for _, tt := range tests {
		rerr := compileErr(t, tt.input)
		if rerr.Name != tt.name {
			t.Errorf("%q: name %q, want %q", tt.input, rerr.Name, tt.name)
		}
		if tt.msg != "" && rerr.Msg != tt.msg {
			t.Errorf("%q: message %q, want %q", tt.input, rerr.Msg, tt.msg)
		}
	}
}
