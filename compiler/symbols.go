package compiler

import (
	"fmt"

	"github.com/edsrzf/trunk/errors"
	"github.com/edsrzf/trunk/token"
)

type SymbolKind int

const (
	SymbolVar SymbolKind = iota
	SymbolParam
	SymbolFunction
	SymbolClass
	SymbolBuiltin
)

func (k SymbolKind) String() string {
	data := map[SymbolKind]string{
		SymbolVar:      "variable",
		SymbolParam:    "parameter",
		SymbolFunction: "function",
		SymbolClass:    "class",
		SymbolBuiltin:  "builtin",
	}
	return data[k]
}

// Symbol is the binding metadata for one declared name. Used records reads
// and Assigned records writes; emission needs both to keep the target's
// unused-variable rule satisfied without dropping a binding that a later
// assignment still refers to.
type Symbol struct {
	Name       string
	TargetName string
	Kind       SymbolKind
	Depth      int
	Arity      int // -1 means variadic
	Used       bool
	Assigned   bool
	Pos        token.Position
}

// SymbolTable is a stack of scope frames. Frame 0 is the universe scope
// (builtins), frame 1 the script's global scope; blocks and function bodies
// push frames on entry and pop them on exit. Lookup walks innermost to
// outermost.
type SymbolTable struct {
	frames []*frame
}

type frame struct {
	names   map[string]*Symbol
	targets map[string]bool
}

func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	t.Push()
	return t
}

func (t *SymbolTable) Push() {
	t.frames = append(t.frames, &frame{
		names:   make(map[string]*Symbol),
		targets: make(map[string]bool),
	})
}

func (t *SymbolTable) Pop() {
	t.frames = t.frames[:len(t.frames)-1]
}

// Depth is the index of the innermost frame.
func (t *SymbolTable) Depth() int {
	return len(t.frames) - 1
}

// Declare binds a name in the innermost frame, assigning it a deterministic
// target-language-safe equivalent name. Redeclaring a name in the same frame
// is an error.
func (t *SymbolTable) Declare(name string, kind SymbolKind, arity int, pos token.Position) (*Symbol, error) {
	top := t.frames[len(t.frames)-1]
	if existing, ok := top.names[name]; ok {
		return nil, &errors.ResolutionError{
			Msg:  fmt.Sprintf("%s %s is already declared in this scope (at %s)", existing.Kind, name, existing.Pos),
			Name: name,
			Pos:  pos,
		}
	}

	sym := &Symbol{
		Name:       name,
		TargetName: t.targetName(name),
		Kind:       kind,
		Depth:      t.Depth(),
		Arity:      arity,
		Pos:        pos,
	}
	top.names[name] = sym
	top.targets[sym.TargetName] = true
	return sym, nil
}

// Lookup resolves a name against the nearest enclosing binding, or nil.
func (t *SymbolTable) Lookup(name string) *Symbol {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if sym, ok := t.frames[i].names[name]; ok {
			return sym
		}
	}
	return nil
}

// goReserved lists names that cannot be used verbatim in emitted Go code:
// the Go keywords plus identifiers the generated scaffolding claims for
// itself (main, init, the runtime alias, and the method call plumbing).
var goReserved = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true,

	"main": true, "init": true, "trunk": true, "args": true, "this": true,
	"_": true,
}

// targetName escapes reserved words by appending underscores until the name
// is both legal in the target language and unique among visible bindings.
func (t *SymbolTable) targetName(name string) string {
	target := name
	for goReserved[target] || t.targetVisible(target) {
		target += "_"
	}
	return target
}

func (t *SymbolTable) targetVisible(target string) bool {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].targets[target] {
			return true
		}
	}
	return false
}
