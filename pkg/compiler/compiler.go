// Package compiler contains the back half of the C−− compiler: name
// analysis, type checking and MIPS code generation, sequenced by the
// driver in this file. Phases run strictly
// one after the other over the shared tree; any diagnostics recorded by a
// phase stop the pipeline before the next one starts.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cmml/cmmc/pkg/lang/ast"
	"github.com/cmml/cmmc/pkg/lang/parser"
	"go.uber.org/zap"
)

// ErrFailed is returned when compilation stopped because diagnostics
// were recorded; the details are in the sink, not the error.
var ErrFailed = errors.New("compilation failed")

// Options controls a compilation.
type Options struct {
	// Outfile is the path of the assembly output.
	Outfile string

	// UnparseFile, when set, receives the canonical unparsed source.
	UnparseFile string

	// DiagWriter receives formatted diagnostics; defaults to stderr.
	DiagWriter io.Writer

	// Logger receives phase-level progress; defaults to a nop logger.
	Logger *zap.Logger
}

// Compiler runs the phase pipeline. The diagnostic sink is exposed so
// callers (and tests) can inspect what was recorded.
type Compiler struct {
	opts  Options
	log   *zap.Logger
	Diags *Sink
}

// New creates a Compiler with the given options.
func New(o Options) *Compiler {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{
		opts:  o,
		log:   log,
		Diags: NewSink(o.DiagWriter),
	}
}

// Compile parses and compiles one source file, returning the generated
// assembly text. ErrFailed reports user-level problems (already written
// to the diagnostic sink); other errors are internal.
func (c *Compiler) Compile(r io.Reader) ([]byte, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	c.log.Info("parsing")
	prog := parser.Parse(string(src), c.Diags.Fatal)
	if prog == nil || c.Diags.HasErrors() {
		return nil, ErrFailed
	}

	c.log.Info("name analysis")
	if err := analyze(prog, c.Diags); err != nil {
		return nil, err
	}
	if c.Diags.HasErrors() {
		return nil, ErrFailed
	}

	c.log.Info("type checking")
	typecheck(prog, c.Diags)
	if c.Diags.HasErrors() {
		return nil, ErrFailed
	}

	if c.opts.UnparseFile != "" {
		if err := writeUnparse(c.opts.UnparseFile, prog); err != nil {
			return nil, err
		}
	}

	c.log.Info("code generation")
	var buf bytes.Buffer
	if err := generate(prog, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse runs the front half only, returning the tree or nil on syntax
// errors (which go to the sink).
func (c *Compiler) Parse(src string) *ast.Program {
	return parser.Parse(src, c.Diags.Fatal)
}

func writeUnparse(path string, prog *ast.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating unparse output: %w", err)
	}
	defer f.Close()
	return ast.Fprint(f, prog)
}

// CompileAndSave compiles the source file at src and writes the assembly
// next to it (or to o.Outfile when set).
func CompileAndSave(src string, o Options) error {
	if o.Outfile == "" {
		o.Outfile = strings.TrimSuffix(src, ".cmm") + ".s"
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	c := New(o)
	asm, err := c.Compile(f)
	if err != nil {
		return err
	}
	return os.WriteFile(o.Outfile, asm, 0o644)
}
