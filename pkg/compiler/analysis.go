package compiler

import (
	"fmt"

	"github.com/cmml/cmmc/pkg/lang/ast"
	"github.com/cmml/cmmc/pkg/lang/token"
	"github.com/cmml/cmmc/pkg/lang/types"
)

const wordSize = 4

// analyzer walks the tree binding identifiers to symbols, assigning
// frame offsets and recording diagnostics. The symbol table is a
// transient scaffold: frames are dropped on scope exit, symbols survive
// through the bindings left on the tree.
type analyzer struct {
	diags *Sink
	tab   *types.SymTable

	hasMain bool

	// Current function context.
	fn     *types.Fn
	offset int // next free frame offset, moves down
}

// analyze runs name analysis over prog. The returned error reports
// internal invariant violations only; user-level problems go to the sink.
func analyze(prog *ast.Program, diags *Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("name analysis: %w", e)
				return
			}
			panic(r)
		}
	}()

	a := &analyzer{diags: diags, tab: types.NewSymTable()}
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			a.varDecl(d)
		case *ast.FnDecl:
			a.fnDecl(d)
		case *ast.StructDecl:
			a.structDecl(d)
		}
	}
	if !a.hasMain {
		diags.Fatal(token.Pos{}, errNoMain)
	}
	return nil
}

func (a *analyzer) openScope() { a.tab.OpenScope() }

func (a *analyzer) closeScope() {
	if err := a.tab.CloseScope(); err != nil {
		panic(err)
	}
}

func (a *analyzer) declare(name string, obj types.Object) {
	if err := a.tab.Declare(name, obj); err != nil {
		panic(err)
	}
}

// resolveStructType finds the struct declaration named by id in the
// global scope, reporting when the name does not denote a struct type.
func (a *analyzer) resolveStructType(id *ast.Ident) *types.StructSym {
	obj := a.tab.Global().Lookup(id.Name)
	sym, ok := obj.(*types.StructSym)
	if !ok {
		a.diags.Fatal(id.Pos(), errBadStructType)
		return nil
	}
	id.Sym = sym
	return sym
}

// checkVarType validates the written type of a non-function declaration
// and returns the semantic type and byte size of an instance. ok is false
// when the declaration cannot produce a symbol.
func (a *analyzer) checkVarType(t *ast.TypeRef, name *ast.Ident) (typ types.Type, size int, ok bool) {
	switch t.Kind {
	case ast.IntKind:
		return types.IntType, wordSize, true
	case ast.BoolKind:
		return types.BoolType, wordSize, true
	case ast.VoidKind:
		a.diags.Fatal(name.Pos(), errNonFnVoid)
		return nil, 0, false
	default:
		sym := a.resolveStructType(t.Name)
		if sym == nil {
			return nil, 0, false
		}
		return sym.Instance(), sym.Size, true
	}
}

func (a *analyzer) varDecl(d *ast.VarDecl) {
	typ, size, ok := a.checkVarType(d.DeclType, d.Name)
	if a.tab.LookupLocal(d.Name.Name) != nil {
		a.diags.Fatal(d.Name.Pos(), errMultiplyDecl)
		return
	}
	if !ok {
		return
	}
	v := types.NewVar(d.Name.Name, typ, size)
	if a.tab.AtGlobal() {
		v.Global = true
	} else {
		// The offset addresses the variable's lowest byte; scalars take
		// one word, struct instances their full size.
		v.Offset = a.offset - size + wordSize
		a.offset -= size
	}
	a.declare(d.Name.Name, v)
	d.Name.Sym = v
}

func (a *analyzer) fnDecl(d *ast.FnDecl) {
	var ret types.Type
	switch d.RetType.Kind {
	case ast.IntKind:
		ret = types.IntType
	case ast.BoolKind:
		ret = types.BoolType
	case ast.VoidKind:
		ret = types.VoidType
	default:
		if sym := a.resolveStructType(d.RetType.Name); sym != nil {
			ret = sym.Instance()
		} else {
			ret = types.ErrorType
		}
	}

	fn := types.NewFn(d.Name.Name, ret)
	if a.tab.LookupLocal(d.Name.Name) != nil {
		a.diags.Fatal(d.Name.Pos(), errMultiplyDecl)
	} else {
		a.declare(d.Name.Name, fn)
		d.Name.Sym = fn
	}
	if d.Name.Name == "main" {
		a.hasMain = true
	}

	a.openScope()
	defer a.closeScope()

	nFormals := 0
	for _, f := range d.Formals {
		typ, _, ok := a.checkVarType(f.DeclType, f.Name)
		if !ok {
			continue
		}
		if a.tab.LookupLocal(f.Name.Name) != nil {
			a.diags.Fatal(f.Name.Pos(), errMultiplyDecl)
			continue
		}
		v := types.NewVar(f.Name.Name, typ, wordSize)
		v.Formal = true
		v.Offset = -wordSize * nFormals
		nFormals++
		a.declare(f.Name.Name, v)
		f.Name.Sym = v
		fn.AddParam(typ)
	}
	fn.FormalsSize = wordSize * nFormals

	// Locals sit below the saved return address and control link.
	prevFn, prevOffset := a.fn, a.offset
	a.fn = fn
	a.offset = -(fn.FormalsSize + 2*wordSize)
	for _, v := range d.Body.Decls {
		a.varDecl(v)
	}
	for _, s := range d.Body.Stmts {
		a.stmt(s)
	}
	fn.LocalsSize = -a.offset - fn.FormalsSize - 2*wordSize
	a.fn, a.offset = prevFn, prevOffset
}

// structDecl processes a struct declaration. Fields live in a fresh,
// isolated frame attached to the struct symbol; they are not visible to
// lexical lookup, and the struct name itself only becomes visible after
// the fields are processed, so a struct cannot contain itself.
func (a *analyzer) structDecl(d *ast.StructDecl) {
	if a.tab.LookupLocal(d.Name.Name) != nil {
		a.diags.Fatal(d.Name.Pos(), errMultiplyDecl)
		return
	}

	sym := types.NewStruct(d.Name.Name)
	off := 0
	for _, f := range d.Fields {
		typ, size, ok := a.checkVarType(f.DeclType, f.Name)
		if !ok {
			continue
		}
		if sym.Fields.Lookup(f.Name.Name) != nil {
			a.diags.Fatal(f.Name.Pos(), errMultiplyDecl)
			continue
		}
		v := types.NewVar(f.Name.Name, typ, size)
		v.Offset = off
		off += size
		if err := sym.Fields.Insert(f.Name.Name, v); err != nil {
			panic(err)
		}
		f.Name.Sym = v
	}
	sym.Size = off

	a.declare(d.Name.Name, sym)
	d.Name.Sym = sym
}

func (a *analyzer) block(b *ast.Block) {
	a.openScope()
	defer a.closeScope()
	for _, v := range b.Decls {
		a.varDecl(v)
	}
	for _, s := range b.Stmts {
		a.stmt(s)
	}
}

func (a *analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		a.expr(s.X)
	case *ast.IncStmt:
		a.expr(s.X)
	case *ast.DecStmt:
		a.expr(s.X)
	case *ast.ReadStmt:
		a.expr(s.X)
	case *ast.WriteStmt:
		a.expr(s.X)
	case *ast.IfStmt:
		a.expr(s.Cond)
		a.block(s.Then)
		if s.Else != nil {
			a.block(s.Else)
		}
	case *ast.WhileStmt:
		a.expr(s.Cond)
		a.block(s.Body)
	case *ast.CallStmt:
		a.expr(s.Call)
	case *ast.ReturnStmt:
		if s.X != nil {
			a.expr(s.X)
		}
	}
}

func (a *analyzer) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Ident:
		a.identUse(e)
	case *ast.DotAccess:
		a.dotAccess(e)
	case *ast.AssignExpr:
		a.expr(e.Lhs)
		a.expr(e.Rhs)
	case *ast.CallExpr:
		a.identUse(e.Fun)
		for _, arg := range e.Args {
			a.expr(arg)
		}
	case *ast.UnaryExpr:
		a.expr(e.X)
	case *ast.BinaryExpr:
		a.expr(e.X)
		a.expr(e.Y)
	}
}

func (a *analyzer) identUse(id *ast.Ident) {
	obj := a.tab.Lookup(id.Name)
	if obj == nil {
		a.diags.Fatal(id.Pos(), errUndeclared)
		return
	}
	id.Sym = obj
}

// dotAccess resolves "loc.field". It reports whether the access resolved;
// a false return means the failure was already reported, here or for a
// nested access, so enclosing accesses stay quiet.
func (a *analyzer) dotAccess(e *ast.DotAccess) bool {
	var decl *types.StructSym

	switch loc := e.X.(type) {
	case *ast.Ident:
		a.identUse(loc)
		if loc.Sym == nil {
			return false
		}
		v, ok := loc.Sym.(*types.Var)
		if !ok || !v.IsStructVar() {
			a.diags.Fatal(loc.Pos(), errDotNonStruct)
			return false
		}
		decl = v.StructDecl()
	case *ast.DotAccess:
		if !a.dotAccess(loc) {
			return false
		}
		if loc.StructDecl == nil {
			a.diags.Fatal(loc.Sel.Pos(), errDotNonStruct)
			return false
		}
		decl = loc.StructDecl
	default:
		a.diags.Fatal(e.X.Pos(), errDotNonStruct)
		return false
	}

	fld, ok := decl.Fields.Lookup(e.Sel.Name).(*types.Var)
	if !ok {
		a.diags.Fatal(e.Sel.Pos(), errBadFieldName)
		return false
	}
	e.Sel.Sym = fld
	if fld.IsStructVar() {
		e.StructDecl = fld.StructDecl()
	}
	return true
}
