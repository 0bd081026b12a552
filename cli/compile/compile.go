// Package compile implements the compile command.
package compile

import (
	"errors"
	"fmt"
	"os"

	"github.com/cmml/cmmc/pkg/compiler"
	"github.com/cmml/cmmc/pkg/config"
	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var errNoInput = errors.New("no input file was found, specify an input file with the '--in' or '-i' flag")

// NewCommands returns the compile command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:   "compile",
		Usage:  "compile a C−− source file to SPIM assembly",
		Action: compileAction,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "in, i",
				Usage: "input file to be compiled",
			},
			cli.StringFlag{
				Name:  "out, o",
				Usage: "output of the generated assembly (default: input with .s extension)",
			},
			cli.StringFlag{
				Name:  "unparse, u",
				Usage: "also write the unparsed canonical source to this file",
			},
			cli.BoolFlag{
				Name:  "debug, d",
				Usage: "log compilation phases and dump the syntax tree",
			},
			cli.StringFlag{
				Name:  "config, c",
				Usage: "YAML configuration file",
			},
		},
	}}
}

func compileAction(ctx *cli.Context) error {
	src := ctx.String("in")
	if src == "" {
		// The input may also be given as the sole positional argument.
		src = ctx.Args().First()
	}
	if src == "" {
		return cli.NewExitError(errNoInput, 1)
	}

	o := compiler.Options{
		Outfile:     ctx.String("out"),
		UnparseFile: ctx.String("unparse"),
	}
	debug := ctx.Bool("debug")
	if path := ctx.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if o.Outfile == "" {
			o.Outfile = cfg.Output.Assembly
		}
		if o.UnparseFile == "" {
			o.UnparseFile = cfg.Output.Unparse
		}
		debug = debug || cfg.Debug
	}

	if debug {
		log, err := newLogger()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer log.Sync()
		o.Logger = log
	}

	if err := compiler.CompileAndSave(src, o); err != nil {
		if errors.Is(err, compiler.ErrFailed) {
			// Diagnostics already went to stderr.
			return cli.NewExitError(err, 1)
		}
		return cli.NewExitError(fmt.Errorf("failed to compile: %w", err), 1)
	}

	if debug {
		dumpTree(src)
	}
	return nil
}

func newLogger() (*zap.Logger, error) {
	cc := zap.NewDevelopmentConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.Encoding = "console"

	log, err := cc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("module", "compiler")), nil
}

// dumpTree re-parses the already validated input and prints the tree;
// only reachable on the debug path after a successful compile.
func dumpTree(src string) {
	data, err := os.ReadFile(src)
	if err != nil {
		return
	}
	c := compiler.New(compiler.Options{DiagWriter: os.Stderr})
	if prog := c.Parse(string(data)); prog != nil {
		spew.Fdump(os.Stderr, prog)
	}
}
