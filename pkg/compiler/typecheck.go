package compiler

import (
	"github.com/cmml/cmmc/pkg/lang/ast"
	"github.com/cmml/cmmc/pkg/lang/token"
	"github.com/cmml/cmmc/pkg/lang/types"
)

// checker assigns a semantic type to every expression bottom-up and
// validates statements against the enclosing function's return type.
// Errors produce the Error type, which absorbs: an operand already typed
// Error never triggers a second complaint about the expression containing
// it. Both operands of a binary operator are checked independently, so
// one expression can yield two diagnostics.
type checker struct {
	diags *Sink
	ret   types.Type // declared return type of the enclosing function
}

// typecheck runs the type checking phase over a name-analysed program.
func typecheck(prog *ast.Program, diags *Sink) {
	c := &checker{diags: diags}
	for _, d := range prog.Decls {
		fn, ok := d.(*ast.FnDecl)
		if !ok {
			continue
		}
		c.ret = declaredRetType(fn)
		for _, s := range fn.Body.Stmts {
			c.stmt(s)
		}
	}
}

// declaredRetType derives the return type from the declaration node
// rather than the function symbol, so bodies of multiply declared
// functions still check.
func declaredRetType(fn *ast.FnDecl) types.Type {
	switch fn.RetType.Kind {
	case ast.IntKind:
		return types.IntType
	case ast.BoolKind:
		return types.BoolType
	case ast.VoidKind:
		return types.VoidType
	}
	if sym, ok := fn.RetType.Name.Sym.(*types.StructSym); ok {
		return sym.Instance()
	}
	return types.ErrorType
}

func (c *checker) block(b *ast.Block) {
	for _, s := range b.Stmts {
		c.stmt(s)
	}
}

func (c *checker) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		c.expr(s.X)
	case *ast.IncStmt:
		c.checkArithOperand(s.X)
	case *ast.DecStmt:
		c.checkArithOperand(s.X)
	case *ast.ReadStmt:
		switch c.expr(s.X).(type) {
		case *types.Func:
			c.diags.Fatal(s.X.Pos(), errReadFn)
		case *types.StructName:
			c.diags.Fatal(s.X.Pos(), errReadStrName)
		case *types.Struct:
			c.diags.Fatal(s.X.Pos(), errReadStrVar)
		}
	case *ast.WriteStmt:
		switch t := c.expr(s.X); {
		case isFunc(t):
			c.diags.Fatal(s.X.Pos(), errWriteFn)
		case isStructName(t):
			c.diags.Fatal(s.X.Pos(), errWriteStrName)
		case isStructVar(t):
			c.diags.Fatal(s.X.Pos(), errWriteStrVar)
		case types.Is(t, types.Void):
			c.diags.Fatal(s.X.Pos(), errWriteVoid)
		}
	case *ast.IfStmt:
		if t := c.expr(s.Cond); !types.Is(t, types.Bool) && !types.IsError(t) {
			c.diags.Fatal(s.Cond.Pos(), errIfCond)
		}
		c.block(s.Then)
		if s.Else != nil {
			c.block(s.Else)
		}
	case *ast.WhileStmt:
		if t := c.expr(s.Cond); !types.Is(t, types.Bool) && !types.IsError(t) {
			c.diags.Fatal(s.Cond.Pos(), errWhileCond)
		}
		c.block(s.Body)
	case *ast.CallStmt:
		c.expr(s.Call)
	case *ast.ReturnStmt:
		c.returnStmt(s)
	}
}

func (c *checker) returnStmt(s *ast.ReturnStmt) {
	if types.Is(c.ret, types.Void) {
		if s.X != nil {
			c.expr(s.X)
			c.diags.Fatal(s.X.Pos(), errReturnInVoid)
		}
		return
	}
	if s.X == nil {
		// The original compiler had no position for a missing value.
		c.diags.Fatal(token.Pos{}, errMissingReturn)
		return
	}
	t := c.expr(s.X)
	if types.IsError(t) || types.IsError(c.ret) {
		return
	}
	if !types.Same(t, c.ret) {
		c.diags.Fatal(s.X.Pos(), errBadReturn)
	}
}

func isFunc(t types.Type) bool       { _, ok := t.(*types.Func); return ok }
func isStructName(t types.Type) bool { _, ok := t.(*types.StructName); return ok }
func isStructVar(t types.Type) bool  { _, ok := t.(*types.Struct); return ok }

// checkArithOperand types e and requires it to be int, for unary minus
// and the increment/decrement statements.
func (c *checker) checkArithOperand(e ast.Expr) types.Type {
	t := c.expr(e)
	if types.IsError(t) {
		return types.ErrorType
	}
	if !types.Is(t, types.Int) {
		c.diags.Fatal(e.Pos(), errArithOperand)
		return types.ErrorType
	}
	return types.IntType
}

// expr types e, records the type on the node and returns it.
func (c *checker) expr(e ast.Expr) types.Type {
	t := c.typeOf(e)
	e.SetType(t)
	return t
}

func (c *checker) typeOf(e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.IntLit:
		return types.IntType
	case *ast.StrLit:
		return types.StringType
	case *ast.BoolLit:
		return types.BoolType
	case *ast.Ident:
		return objType(e.Sym)
	case *ast.DotAccess:
		// Resolution happened during name analysis; here the chain just
		// receives its types bottom-up.
		c.expr(e.X)
		return objType(e.Sel.Sym)
	case *ast.AssignExpr:
		return c.assign(e)
	case *ast.CallExpr:
		return c.call(e)
	case *ast.UnaryExpr:
		if e.Op == ast.Neg {
			return c.checkArithOperand(e.X)
		}
		t := c.expr(e.X)
		if types.IsError(t) {
			return types.ErrorType
		}
		if !types.Is(t, types.Bool) {
			c.diags.Fatal(e.X.Pos(), errLogicalOperand)
			return types.ErrorType
		}
		return types.BoolType
	case *ast.BinaryExpr:
		return c.binary(e)
	}
	return types.ErrorType
}

func objType(obj types.Object) types.Type {
	if obj == nil {
		return types.ErrorType
	}
	return obj.Type()
}

func (c *checker) binary(e *ast.BinaryExpr) types.Type {
	if e.Op.IsEquality() {
		return c.equality(e)
	}

	var want types.BasicKind
	var msg string
	var result types.Type
	switch {
	case e.Op.IsArith():
		want, msg, result = types.Int, errArithOperand, types.IntType
	case e.Op.IsLogical():
		want, msg, result = types.Bool, errLogicalOperand, types.BoolType
	default:
		want, msg, result = types.Int, errRelOperand, types.BoolType
	}

	// Each side is checked on its own so one operator can report twice.
	ok := true
	for _, x := range [...]ast.Expr{e.X, e.Y} {
		t := c.expr(x)
		if types.IsError(t) {
			ok = false
		} else if !types.Is(t, want) {
			c.diags.Fatal(x.Pos(), msg)
			ok = false
		}
	}
	if !ok {
		return types.ErrorType
	}
	return result
}

func (c *checker) equality(e *ast.BinaryExpr) types.Type {
	tl := c.expr(e.X)
	tr := c.expr(e.Y)
	if types.IsError(tl) || types.IsError(tr) {
		return types.ErrorType
	}
	switch {
	case types.Is(tl, types.Void) && types.Is(tr, types.Void):
		c.diags.Fatal(e.Pos(), errEqVoidFns)
	case isFunc(tl) && isFunc(tr):
		c.diags.Fatal(e.Pos(), errEqFns)
	case isStructName(tl) && isStructName(tr):
		c.diags.Fatal(e.Pos(), errEqStructNames)
	case isStructVar(tl) && isStructVar(tr):
		c.diags.Fatal(e.Pos(), errEqStructVars)
	case !types.Same(tl, tr):
		c.diags.Fatal(e.Pos(), errTypeMismatch)
	default:
		return types.BoolType
	}
	return types.ErrorType
}

func (c *checker) assign(e *ast.AssignExpr) types.Type {
	tl := c.expr(e.Lhs)
	tr := c.expr(e.Rhs)
	if types.IsError(tl) || types.IsError(tr) {
		return types.ErrorType
	}
	switch {
	case isFunc(tl) && isFunc(tr):
		c.diags.Fatal(e.Pos(), errAssignFn)
	case isStructName(tl) && isStructName(tr):
		c.diags.Fatal(e.Pos(), errAssignStrName)
	case isStructVar(tl) && isStructVar(tr):
		c.diags.Fatal(e.Pos(), errAssignStrVar)
	case !types.Same(tl, tr):
		c.diags.Fatal(e.Pos(), errTypeMismatch)
	default:
		return tl
	}
	return types.ErrorType
}

func (c *checker) call(e *ast.CallExpr) types.Type {
	for _, arg := range e.Args {
		c.expr(arg)
	}
	if e.Fun.Sym == nil {
		// Undeclared callee was already reported by name analysis.
		return types.ErrorType
	}
	fn, ok := e.Fun.Sym.(*types.Fn)
	if !ok {
		c.diags.Fatal(e.Fun.Pos(), errCallNonFn)
		return types.ErrorType
	}
	e.Fun.SetType(fn.Type())
	sig := fn.Sig()
	if len(e.Args) != len(sig.Params) {
		c.diags.Fatal(e.Fun.Pos(), errCallArity)
		return sig.Ret
	}
	for i, arg := range e.Args {
		t := arg.Type()
		if !types.IsError(t) && !types.Same(t, sig.Params[i]) {
			c.diags.Fatal(arg.Pos(), errCallArgType)
		}
	}
	return sig.Ret
}
