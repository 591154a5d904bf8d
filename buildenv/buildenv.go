// Package buildenv assembles a runnable module around compiled source. It
// shells out to the target toolchain to initialize the module, point the
// runtime dependency at a local checkout, and register requirements, then
// writes the generated file atomically so a partially written file is never
// observed at the destination.
package buildenv

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/compiler"
	"github.com/edsrzf/trunk/errors"
)

const (
	// DefaultModule names the assembled module when none is configured.
	DefaultModule = "trunk_app"

	// GeneratedFileName is the file the compiled source is written to.
	GeneratedFileName = "main.go"

	// DefaultTimeout bounds each toolchain command.
	DefaultTimeout = time.Minute
)

// RunnerFunc executes one toolchain command in dir and returns its combined
// output. Tests substitute their own to avoid spawning processes.
type RunnerFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

type Config struct {
	// Module is the module path given to the init step.
	Module string

	// RuntimePath, when set, is a local directory the runtime import is
	// replaced with before dependencies are resolved. Resolution then never
	// reaches the network for the runtime.
	RuntimePath string

	// Timeout bounds each toolchain command individually.
	Timeout time.Duration

	// Runner executes toolchain commands; nil means the real toolchain.
	Runner RunnerFunc
}

// BuildEnvironment describes a successfully assembled module directory.
type BuildEnvironment struct {
	Dir           string
	Module        string
	Imports       []string
	RuntimePath   string
	GeneratedFile string
}

type Assembler struct {
	cfg Config

	// rename swaps the temp file into place. A field so tests can fail it.
	rename func(oldpath, newpath string) error
}

func New(cfg Config) *Assembler {
	if cfg.Module == "" {
		cfg.Module = DefaultModule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner
	}
	return &Assembler{cfg: cfg, rename: os.Rename}
}

// Assemble builds a fresh module at dest containing the unit's source. Any
// go.mod left from a previous run is discarded first, so assembling twice
// into the same directory converges on the same state. The generated file
// is written last and atomically: once go.mod and the dependency graph are
// in place, a rename publishes the source or the old file survives intact.
func (a *Assembler) Assemble(ctx context.Context, dest string, unit *compiler.CompiledUnit) (*BuildEnvironment, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, tracerr.Wrap(&errors.IOError{Op: "create", Path: dest, Err: err})
	}

	modFile := filepath.Join(dest, "go.mod")
	if err := os.Remove(modFile); err != nil && !os.IsNotExist(err) {
		return nil, tracerr.Wrap(&errors.IOError{Op: "remove", Path: modFile, Err: err})
	}

	if err := a.run(ctx, dest, "initialize module", "go", "mod", "init", a.cfg.Module); err != nil {
		return nil, err
	}

	// The override must land before dependency resolution so the runtime
	// requirement is satisfied from the local path.
	if a.cfg.RuntimePath != "" {
		for _, imp := range unit.Imports {
			replacement := imp + "=" + a.cfg.RuntimePath
			if err := a.run(ctx, dest, "apply local override", "go", "mod", "edit", "-replace", replacement); err != nil {
				return nil, err
			}
		}
	}

	for _, imp := range unit.Imports {
		if err := a.run(ctx, dest, "register dependency", "go", "get", imp); err != nil {
			return nil, err
		}
	}

	target := filepath.Join(dest, GeneratedFileName)
	if err := a.write(target, unit.Source); err != nil {
		return nil, err
	}

	return &BuildEnvironment{
		Dir:           dest,
		Module:        a.cfg.Module,
		Imports:       unit.Imports,
		RuntimePath:   a.cfg.RuntimePath,
		GeneratedFile: target,
	}, nil
}

func (a *Assembler) run(ctx context.Context, dir, step string, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	out, err := a.cfg.Runner(ctx, dir, name, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return tracerr.Wrap(&errors.TimeoutError{Step: step, After: a.cfg.Timeout})
	}
	return tracerr.Wrap(&errors.BuildEnvironmentError{Step: step, Output: string(out), Err: err})
}

// write publishes source at path via a temp file in the same directory and
// a rename, so readers of path see either the previous content or the new
// content, never a partial write.
func (a *Assembler) write(path string, source string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+GeneratedFileName+".tmp-*")
	if err != nil {
		return tracerr.Wrap(&errors.IOError{Op: "create", Path: dir, Err: err})
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return tracerr.Wrap(err)
	}

	if _, err := tmp.WriteString(source); err != nil {
		return cleanup(&errors.IOError{Op: "write", Path: tmpName, Err: err})
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(&errors.IOError{Op: "chmod", Path: tmpName, Err: err})
	}
	if err := tmp.Close(); err != nil {
		return cleanup(&errors.IOError{Op: "close", Path: tmpName, Err: err})
	}
	if err := a.rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return tracerr.Wrap(&errors.IOError{Op: "rename", Path: path, Err: err})
	}
	return nil
}
