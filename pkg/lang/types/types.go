// Package types defines the semantic types of C−− together with the
// symbols and scoped symbol table used by the semantic phases. The split
// from the AST mirrors go/ast and go/types: syntax in one package,
// meaning in the other, with AST identifiers holding back-references into
// this package.
package types

import "strings"

// Type is a semantic type. The set is closed: the basic types, function
// types, struct declarations (the type of a struct *name* expression) and
// struct variables (nominally typed instances).
type Type interface {
	String() string
	aType()
}

// BasicKind enumerates the scalar types plus the two special ones:
// String, which only string literals have, and Error, which absorbs
// further diagnostics.
type BasicKind uint8

const (
	Invalid BasicKind = iota
	Int
	Bool
	Void
	String
	Error
)

// Basic is a scalar (or special) type.
type Basic struct {
	kind BasicKind
}

func (b *Basic) aType() {}

// Kind returns the kind of the basic type.
func (b *Basic) Kind() BasicKind { return b.kind }

func (b *Basic) String() string {
	switch b.kind {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Void:
		return "void"
	case String:
		return "string"
	case Error:
		return "error"
	}
	return "invalid"
}

// Singletons for the basic types; compare with ==.
var (
	IntType    = &Basic{kind: Int}
	BoolType   = &Basic{kind: Bool}
	VoidType   = &Basic{kind: Void}
	StringType = &Basic{kind: String}
	ErrorType  = &Basic{kind: Error}
)

// Func is the type of a function name: its parameter types and return
// type. Func types are never assignable or comparable.
type Func struct {
	Params []Type
	Ret    Type
}

func (f *Func) aType() {}

func (f *Func) String() string {
	var b strings.Builder
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(p.String())
	}
	b.WriteString("->")
	b.WriteString(f.Ret.String())
	return b.String()
}

// StructName is the type of an expression naming a struct declaration.
// It cannot be read, written, assigned or compared.
type StructName struct {
	Decl *StructSym
}

func (s *StructName) aType() {}

func (s *StructName) String() string { return "struct " + s.Decl.Name() }

// Struct is the type of a struct variable. Identity is nominal: two
// Struct types are the same only when they point at the same declaration.
type Struct struct {
	Decl *StructSym
}

func (s *Struct) aType() {}

func (s *Struct) String() string { return "struct " + s.Decl.Name() }

// Same reports whether a and b are the same semantic type. Scalars
// compare structurally, struct variables nominally. Func and StructName
// types never compare equal to anything, not even themselves: the
// operations that would care (assignment, equality) reject them with
// dedicated diagnostics before asking.
func Same(a, b Type) bool {
	if ab, ok := a.(*Basic); ok {
		bb, ok := b.(*Basic)
		return ok && ab.kind == bb.kind
	}
	if as, ok := a.(*Struct); ok {
		bs, ok := b.(*Struct)
		return ok && as.Decl == bs.Decl
	}
	return false
}

// IsError reports whether t is the error-absorbing type.
func IsError(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.kind == Error
}

// Is reports whether t is the basic type of the given kind.
func Is(t Type, k BasicKind) bool {
	b, ok := t.(*Basic)
	return ok && b.kind == k
}
