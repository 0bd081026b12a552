package mips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterSections(t *testing.T) {
	w := NewWriter()
	w.Label("main")
	w.Inst(LI, V0, Imm(10))
	w.Inst(SYSC)
	w.Global("_g", 4)
	w.Asciiz("_L0", "hi")

	var b strings.Builder
	require.NoError(t, w.Flush(&b))
	out := b.String()

	// Data first, text second, regardless of emission order.
	require.Less(t, strings.Index(out, ".data"), strings.Index(out, ".text"))
	require.Contains(t, out, "_g:\t.space 4")
	require.Contains(t, out, "_L0:\t.asciiz \"hi\"")
	require.Contains(t, out, "main:\n")
	require.Contains(t, out, "\tli\t$v0, 10\n")
	require.Contains(t, out, "\tsyscall\n")
}

func TestWriterNoData(t *testing.T) {
	w := NewWriter()
	w.Inst(JR, RA)
	var b strings.Builder
	require.NoError(t, w.Flush(&b))
	require.False(t, strings.Contains(b.String(), ".data"))
}

func TestEscape(t *testing.T) {
	w := NewWriter()
	w.Asciiz("_L0", "a\nb\t\"c\"\\")
	var b strings.Builder
	require.NoError(t, w.Flush(&b))
	require.Contains(t, b.String(), `_L0:	.asciiz "a\nb\t\"c\"\\"`)
}

func TestOperandHelpers(t *testing.T) {
	require.Equal(t, "-8($fp)", Off(-8, FP))
	require.Equal(t, "42", Imm(42))
}
