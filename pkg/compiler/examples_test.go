package compiler_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmml/cmmc/pkg/compiler"
	"github.com/stretchr/testify/require"
)

// The shipped example programs compile cleanly and produce well-formed
// assembly.
func TestExamplePrograms(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.cmm"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			require.NoError(t, err)

			var diags bytes.Buffer
			c := compiler.New(compiler.Options{DiagWriter: &diags})
			asm, err := c.Compile(bytes.NewReader(src))
			require.NoError(t, err, "diagnostics:\n%s", diags.String())

			out := string(asm)
			require.Contains(t, out, "main:\n")
			require.Contains(t, out, "__start:\n")
			require.Contains(t, out, "li\t$v0, 10")
			require.True(t, strings.HasPrefix(out, "\t.data\n") || strings.HasPrefix(out, "\t.text\n"))
		})
	}
}
