package types

// Object is a named program entity created by name analysis: a variable,
// a function or a struct declaration. AST identifiers hold an Object
// back-reference after binding; the objects are shared between the table
// and the tree, never owned by either.
type Object interface {
	Name() string
	Type() Type
}

// Var is a declared variable or formal parameter. For struct-typed
// variables Type() is a *Struct, which is what makes them "struct
// variable" symbols. Offset is the byte offset of the variable's lowest
// byte from the frame pointer; it is meaningless for globals, which are
// addressed by label instead.
type Var struct {
	name   string
	typ    Type
	Global bool
	Formal bool
	Offset int
	Size   int
}

// NewVar creates a variable symbol of the given type and byte size.
func NewVar(name string, typ Type, size int) *Var {
	return &Var{name: name, typ: typ, Size: size}
}

func (v *Var) Name() string { return v.name }

// Type implements Object.
func (v *Var) Type() Type { return v.typ }

// IsStructVar reports whether the variable is an instance of a struct
// type.
func (v *Var) IsStructVar() bool {
	_, ok := v.typ.(*Struct)
	return ok
}

// StructDecl returns the declaration of a struct variable's type, or nil
// for scalars.
func (v *Var) StructDecl() *StructSym {
	if s, ok := v.typ.(*Struct); ok {
		return s.Decl
	}
	return nil
}

// Fn is a declared function. FormalsSize and LocalsSize are filled in by
// name analysis and drive the prologue/epilogue.
type Fn struct {
	name        string
	sig         *Func
	FormalsSize int
	LocalsSize  int
}

// NewFn creates a function symbol with an empty signature; name analysis
// completes the signature after walking the formals.
func NewFn(name string, ret Type) *Fn {
	return &Fn{name: name, sig: &Func{Ret: ret}}
}

func (f *Fn) Name() string { return f.name }

// Type implements Object.
func (f *Fn) Type() Type { return f.sig }

// Sig returns the function's signature.
func (f *Fn) Sig() *Func { return f.sig }

// AddParam appends a parameter type to the signature.
func (f *Fn) AddParam(t Type) { f.sig.Params = append(f.sig.Params, t) }

// StructSym is a struct declaration. Its fields live in a frozen, isolated
// table consulted by dot-access resolution, never by ordinary lexical
// lookup. Size is the byte size of an instance.
type StructSym struct {
	name   string
	typ    *StructName
	Fields *Frame
	Size   int
}

// NewStruct creates a struct declaration symbol with an empty field
// table.
func NewStruct(name string) *StructSym {
	s := &StructSym{name: name, Fields: NewFrame()}
	s.typ = &StructName{Decl: s}
	return s
}

func (s *StructSym) Name() string { return s.name }

// Type implements Object.
func (s *StructSym) Type() Type { return s.typ }

// Instance returns the nominal type of a variable declared with this
// struct.
func (s *StructSym) Instance() *Struct { return &Struct{Decl: s} }
