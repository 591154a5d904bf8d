// Package config reads and writes the trunk.yaml project descriptor. The
// descriptor is optional; every field falls back to a default so a bare
// script compiles without one.
package config

import (
	"os"

	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"

	"github.com/edsrzf/trunk/compiler"
	"github.com/edsrzf/trunk/errors"
)

// FileName is the descriptor's name in the project directory.
const FileName = "trunk.yaml"

type Runtime struct {
	// Import is the import path the generated source targets.
	Import string `yaml:"import"`

	// Path is a local checkout the import is replaced with. Empty disables
	// the override and the dependency resolves normally.
	Path string `yaml:"path"`
}

type Project struct {
	// Module is the module path of the assembled build environment.
	Module string `yaml:"module"`

	// Output is the directory the build environment is assembled in.
	Output string `yaml:"output"`

	Runtime Runtime `yaml:"runtime"`
}

// Default is the configuration used when no descriptor exists.
func Default() Project {
	return Project{
		Module: "trunk_app",
		Output: "build",
		Runtime: Runtime{
			Import: compiler.DefaultRuntimeImport,
			Path:   "../trunk-runtime",
		},
	}
}

// Load reads the descriptor at path. Fields left empty in the file keep
// their defaults, so a descriptor only needs to name what it changes.
func Load(path string) (Project, error) {
	project := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return project, tracerr.Wrap(&errors.IOError{Op: "read", Path: path, Err: err})
	}
	if err := yaml.Unmarshal(data, &project); err != nil {
		return project, tracerr.Wrap(err)
	}

	defaults := Default()
	if project.Module == "" {
		project.Module = defaults.Module
	}
	if project.Output == "" {
		project.Output = defaults.Output
	}
	if project.Runtime.Import == "" {
		project.Runtime.Import = defaults.Runtime.Import
	}
	return project, nil
}

// Save writes the descriptor to path.
func (p Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return tracerr.Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return tracerr.Wrap(&errors.IOError{Op: "write", Path: path, Err: err})
	}
	return nil
}
