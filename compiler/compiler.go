// Package compiler lowers a parsed trunk program to target source. It runs
// two passes over the tree: resolution binds every name and validates the
// program's semantic rules, then emission renders the lowered form against
// the runtime package.
package compiler

import (
	"bytes"

	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/ast"
	"github.com/edsrzf/trunk/errors"
)

// DefaultRuntimeImport is the import path the generated source targets when
// no override is configured.
const DefaultRuntimeImport = "github.com/edsrzf/trunk-runtime"

// CompiledUnit is the output of a successful compile: rendered source plus
// the import paths it depends on, which the build environment assembler
// registers as module requirements.
type CompiledUnit struct {
	Source  string
	Imports []string
}

type Compiler struct {
	// RuntimeImport overrides the import path of the runtime package.
	RuntimeImport string
}

func New() *Compiler {
	return &Compiler{RuntimeImport: DefaultRuntimeImport}
}

// Compile lowers a program to a single main-package source file. The input
// tree is not modified, so the same program may be compiled repeatedly and
// yields identical output each time.
func (c *Compiler) Compile(prog *ast.Program) (unit *CompiledUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(*errors.ResolutionError); ok {
				unit = nil
				err = tracerr.Wrap(rerr)
				return
			}
			panic(r)
		}
	}()

	runtimeImport := c.RuntimeImport
	if runtimeImport == "" {
		runtimeImport = DefaultRuntimeImport
	}

	res := resolve(prog)
	file, runtimeUsed := emit(prog, res, runtimeImport)

	var buf bytes.Buffer
	if err := file.Render(&buf); err != nil {
		return nil, tracerr.Wrap(err)
	}

	var imports []string
	if runtimeUsed {
		imports = []string{runtimeImport}
	}
	return &CompiledUnit{Source: buf.String(), Imports: imports}, nil
}
