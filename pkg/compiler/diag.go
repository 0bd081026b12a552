package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/cmml/cmmc/pkg/lang/token"
)

// Sink records semantic diagnostics. It is monotonic: messages are only
// ever appended, and the errors-seen flag only ever latches. The driver
// polls the flag between phases and refuses to start the next phase once
// it is set. For a fixed input the sequence of messages is deterministic,
// each phase walks the tree in a single fixed order.
type Sink struct {
	w    io.Writer
	msgs []string
}

// NewSink creates a sink writing formatted diagnostics to w; a nil w
// defaults to standard error.
func NewSink(w io.Writer) *Sink {
	if w == nil {
		w = os.Stderr
	}
	return &Sink{w: w}
}

// Fatal records a fatal semantic error at pos. Compilation continues
// within the current phase so independent errors still surface.
func (s *Sink) Fatal(pos token.Pos, msg string) {
	line := fmt.Sprintf("%d:%d ***ERROR*** %s", pos.Line, pos.Col, msg)
	s.msgs = append(s.msgs, line)
	fmt.Fprintln(s.w, line)
}

// HasErrors reports whether any diagnostic has been recorded.
func (s *Sink) HasErrors() bool { return len(s.msgs) > 0 }

// Count returns the number of recorded diagnostics.
func (s *Sink) Count() int { return len(s.msgs) }

// Messages returns the recorded diagnostics in emission order.
func (s *Sink) Messages() []string { return s.msgs }

// The user-visible diagnostic strings. The phrasing is fixed; tests
// compare against these exact messages.
const (
	errNonFnVoid      = "Non-function declared void"
	errBadStructType  = "Invalid name of struct type"
	errMultiplyDecl   = "Multiply declared identifier"
	errUndeclared     = "Undeclared identifier"
	errDotNonStruct   = "Dot-access of non-struct type"
	errBadFieldName   = "Invalid struct field name"
	errNoMain         = "No main function"
	errArithOperand   = "Arithmetic operator applied to non-numeric operand"
	errLogicalOperand = "Logical operator applied to non-bool operand"
	errRelOperand     = "Relational operator applied to non-numeric operand"
	errTypeMismatch   = "Type mismatch"
	errEqVoidFns      = "Equality operator applied to void functions"
	errEqFns          = "Equality operator applied to functions"
	errEqStructNames  = "Equality operator applied to struct names"
	errEqStructVars   = "Equality operator applied to struct variables"
	errAssignFn       = "Function assignment"
	errAssignStrName  = "Struct name assignment"
	errAssignStrVar   = "Struct variable assignment"
	errCallNonFn      = "Attempt to call a non-function"
	errCallArity      = "Function call with wrong number of args"
	errCallArgType    = "Type of actual does not match type of formal"
	errReadFn         = "Attempt to read a function"
	errReadStrName    = "Attempt to read a struct name"
	errReadStrVar     = "Attempt to read a struct variable"
	errWriteFn        = "Attempt to write a function"
	errWriteStrName   = "Attempt to write a struct name"
	errWriteStrVar    = "Attempt to write a struct variable"
	errWriteVoid      = "Attempt to write void"
	errReturnInVoid   = "Return with a value in a void function"
	errMissingReturn  = "Missing return value"
	errBadReturn      = "Bad return value"
	errIfCond         = "Non-bool expression used as an if condition"
	errWhileCond      = "Non-bool expression used as a while condition"
)
