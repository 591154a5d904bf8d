package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/repr"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"github.com/edsrzf/trunk/ast"
	"github.com/edsrzf/trunk/buildenv"
	"github.com/edsrzf/trunk/compiler"
	"github.com/edsrzf/trunk/config"
	"github.com/edsrzf/trunk/lexer"
	"github.com/edsrzf/trunk/parser"
)

func parseFile(path string) (*ast.Program, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	defer handle.Close()

	return parser.New(lexer.New(handle)).Parse()
}

// loadProject reads trunk.yaml from the working directory if one exists.
func loadProject() (config.Project, error) {
	if _, err := os.Stat(config.FileName); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(config.FileName)
}

func scriptArg(c *cli.Context) (string, error) {
	path := c.Args().First()
	if path == "" {
		return "", fmt.Errorf("no script file provided")
	}
	return path, nil
}

func main() {
	app := &cli.App{
		Name:  "trunk",
		Usage: "trunk script compiler",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a default trunk.yaml in the current directory",
				Action: func(c *cli.Context) error {
					project := config.Default()
					if name := c.Args().First(); name != "" {
						project.Module = name
					}
					return project.Save(config.FileName)
				},
			},
			{
				Name:  "ast",
				Usage: "dump the syntax tree of a script",
				Action: func(c *cli.Context) error {
					path, err := scriptArg(c)
					if err != nil {
						return err
					}
					prog, err := parseFile(path)
					if err != nil {
						return err
					}
					repr.Println(prog)
					return nil
				},
			},
			{
				Name:  "emit",
				Usage: "compile a script and print the generated source",
				Action: func(c *cli.Context) error {
					path, err := scriptArg(c)
					if err != nil {
						return err
					}
					prog, err := parseFile(path)
					if err != nil {
						return err
					}
					project, err := loadProject()
					if err != nil {
						return err
					}

					comp := &compiler.Compiler{RuntimeImport: project.Runtime.Import}
					unit, err := comp.Compile(prog)
					if err != nil {
						return err
					}
					fmt.Print(unit.Source)
					return nil
				},
			},
			{
				Name:  "build",
				Usage: "compile a script and assemble a runnable module",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dest",
						Usage: "destination directory, overrides trunk.yaml",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Value: false,
						Usage: "print the generated source instead of assembling",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: buildenv.DefaultTimeout,
						Usage: "bound on each toolchain command",
					},
				},
				Action: func(c *cli.Context) error {
					path, err := scriptArg(c)
					if err != nil {
						return err
					}
					prog, err := parseFile(path)
					if err != nil {
						return err
					}
					project, err := loadProject()
					if err != nil {
						return err
					}

					comp := &compiler.Compiler{RuntimeImport: project.Runtime.Import}
					unit, err := comp.Compile(prog)
					if err != nil {
						return err
					}
					if c.Bool("dump") {
						fmt.Print(unit.Source)
						return nil
					}

					dest := c.String("dest")
					if dest == "" {
						dest = project.Output
					}

					assembler := buildenv.New(buildenv.Config{
						Module:      project.Module,
						RuntimePath: project.Runtime.Path,
						Timeout:     c.Duration("timeout"),
					})
					env, err := assembler.Assemble(c.Context, dest, unit)
					if err != nil {
						return err
					}
					fmt.Printf("assembled %s in %s\n", env.Module, env.Dir)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		tracerr.PrintSourceColor(err)
		os.Exit(1)
	}
}
