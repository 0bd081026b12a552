package parser

import (
	"testing"

	"github.com/cmml/cmmc/pkg/lang/ast"
	"github.com/cmml/cmmc/pkg/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog := Parse(src, func(pos token.Pos, msg string) {
		t.Fatalf("unexpected error at %s: %s", pos, msg)
	})
	require.NotNil(t, prog)
	return prog
}

func parseErr(t *testing.T, src string) token.Pos {
	t.Helper()
	var at token.Pos
	n := 0
	prog := Parse(src, func(pos token.Pos, msg string) {
		require.Equal(t, "syntax error", msg)
		at = pos
		n++
	})
	require.Nil(t, prog)
	require.Equal(t, 1, n)
	return at
}

func TestParseDecls(t *testing.T) {
	prog := parse(t, `
		int g;
		struct point {
			int x;
			int y;
		};
		struct point p;
		void main() {
		}
	`)
	require.Len(t, prog.Decls, 4)

	v, ok := prog.Decls[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, ast.IntKind, v.DeclType.Kind)
	assert.Equal(t, "g", v.Name.Name)

	s, ok := prog.Decls[1].(*ast.StructDecl)
	require.True(t, ok)
	assert.Equal(t, "point", s.Name.Name)
	require.Len(t, s.Fields, 2)

	sv, ok := prog.Decls[2].(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, ast.StructKind, sv.DeclType.Kind)
	assert.Equal(t, "point", sv.DeclType.Name.Name)

	fn, ok := prog.Decls[3].(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, ast.VoidKind, fn.RetType.Kind)
	assert.Equal(t, "main", fn.Name.Name)
}

func TestParseFormals(t *testing.T) {
	prog := parse(t, "int add(int a, int b) { return a + b; }")
	fn := prog.Decls[0].(*ast.FnDecl)
	require.Len(t, fn.Formals, 2)
	assert.Equal(t, "a", fn.Formals[0].Name.Name)
	assert.Equal(t, "b", fn.Formals[1].Name.Name)

	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	sum, ok := ret.X.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Plus, sum.Op)
}

func TestParseStmts(t *testing.T) {
	prog := parse(t, `
		void main() {
			int x;
			bool b;
			x = 1;
			x++;
			x--;
			cin >> x;
			cout << x;
			if (b) {
				x = 2;
			}
			if (b) {
				x = 3;
			} else {
				x = 4;
			}
			while (b) {
				x = 5;
			}
			main();
			return;
		}
	`)
	fn := prog.Decls[0].(*ast.FnDecl)
	require.Len(t, fn.Body.Decls, 2)
	require.Len(t, fn.Body.Stmts, 10)

	_, ok := fn.Body.Stmts[0].(*ast.AssignStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Stmts[1].(*ast.IncStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Stmts[2].(*ast.DecStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Stmts[3].(*ast.ReadStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Stmts[4].(*ast.WriteStmt)
	assert.True(t, ok)

	iff, ok := fn.Body.Stmts[5].(*ast.IfStmt)
	require.True(t, ok)
	assert.Nil(t, iff.Else)

	ifElse, ok := fn.Body.Stmts[6].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifElse.Else)

	_, ok = fn.Body.Stmts[7].(*ast.WhileStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Stmts[8].(*ast.CallStmt)
	assert.True(t, ok)
	ret, ok := fn.Body.Stmts[9].(*ast.ReturnStmt)
	require.True(t, ok)
	assert.Nil(t, ret.X)
}

// exprOf parses "void main() { b = <src>; }" and returns the assigned
// expression.
func exprOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	prog := parse(t, "void main() { b = "+src+"; }")
	fn := prog.Decls[0].(*ast.FnDecl)
	return fn.Body.Stmts[0].(*ast.AssignStmt).X.Rhs
}

func TestPrecedence(t *testing.T) {
	// * binds tighter than +.
	e := exprOf(t, "1 + 2 * 3").(*ast.BinaryExpr)
	require.Equal(t, ast.Plus, e.Op)
	rhs := e.Y.(*ast.BinaryExpr)
	require.Equal(t, ast.Times, rhs.Op)

	// Comparison binds tighter than &&, which binds tighter than ||.
	e = exprOf(t, "a < 3 && b || c").(*ast.BinaryExpr)
	require.Equal(t, ast.Or, e.Op)
	land := e.X.(*ast.BinaryExpr)
	require.Equal(t, ast.And, land.Op)
	cmp := land.X.(*ast.BinaryExpr)
	require.Equal(t, ast.Lt, cmp.Op)

	// Unary binds tighter than binary.
	e = exprOf(t, "-a + !b").(*ast.BinaryExpr)
	require.Equal(t, ast.Plus, e.Op)
	neg := e.X.(*ast.UnaryExpr)
	require.Equal(t, ast.Neg, neg.Op)
	not := e.Y.(*ast.UnaryExpr)
	require.Equal(t, ast.Not, not.Op)

	// Parens override.
	e = exprOf(t, "(1 + 2) * 3").(*ast.BinaryExpr)
	require.Equal(t, ast.Times, e.Op)
}

func TestAssignChains(t *testing.T) {
	prog := parse(t, "void main() { a = b = 1; }")
	fn := prog.Decls[0].(*ast.FnDecl)
	outer := fn.Body.Stmts[0].(*ast.AssignStmt).X
	inner, ok := outer.Rhs.(*ast.AssignExpr)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Lhs.(*ast.Ident).Name)
}

func TestDotChains(t *testing.T) {
	prog := parse(t, "void main() { b.a.f = 1; }")
	fn := prog.Decls[0].(*ast.FnDecl)
	lhs := fn.Body.Stmts[0].(*ast.AssignStmt).X.Lhs
	outer, ok := lhs.(*ast.DotAccess)
	require.True(t, ok)
	assert.Equal(t, "f", outer.Sel.Name)
	inner, ok := outer.X.(*ast.DotAccess)
	require.True(t, ok)
	assert.Equal(t, "a", inner.Sel.Name)
	assert.Equal(t, "b", inner.X.(*ast.Ident).Name)
}

func TestCallArgs(t *testing.T) {
	prog := parse(t, "void main() { f(1, x, g()); }")
	fn := prog.Decls[0].(*ast.FnDecl)
	call := fn.Body.Stmts[0].(*ast.CallStmt).Call
	require.Len(t, call.Args, 3)
	_, ok := call.Args[2].(*ast.CallExpr)
	assert.True(t, ok)
}

func TestSyntaxErrors(t *testing.T) {
	// Non-associative comparison.
	parseErr(t, "void main() { b = 1 < 2 < 3; }")
	// Assignment to a non-lvalue.
	parseErr(t, "void main() { b = 3 = 4; }")
	// Declarations must precede statements in a body.
	parseErr(t, "void main() { x = 1; int x; }")
	// Struct declarations need at least one field.
	parseErr(t, "struct empty { }; void main() { }")
	// Missing semicolon.
	pos := parseErr(t, "void main() { x = 1 }")
	require.Equal(t, token.Pos{Line: 1, Col: 21}, pos)
}

func TestParseErrorStopsAtFirst(t *testing.T) {
	// Only the first syntax error is reported.
	parseErr(t, "void main() { x = ; y = ; }")
}
