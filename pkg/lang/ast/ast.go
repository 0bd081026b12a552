// Package ast declares the syntax tree of C−−. Nodes are plain structs
// behind the Decl, Stmt and Expr marker interfaces and every phase over
// the tree dispatches with a type switch. Identifiers carry a mutable
// symbol slot that name analysis fills; the symbol is referenced, never
// owned, by the node. Expressions additionally carry the semantic type
// assigned by the type checker, which code generation reads back.
package ast

import (
	"github.com/cmml/cmmc/pkg/lang/token"
	"github.com/cmml/cmmc/pkg/lang/types"
)

// Node is implemented by all AST nodes.
type Node interface {
	Pos() token.Pos
}

// Decl is a declaration node.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node. Type returns the semantic type assigned by
// the type checker (nil before checking).
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
}

// expr carries the type annotation shared by all expression nodes.
type expr struct {
	typ types.Type
}

func (e *expr) exprNode() {}

// Type returns the semantic type assigned by the type checker.
func (e *expr) Type() types.Type { return e.typ }

// SetType records the semantic type of the expression.
func (e *expr) SetType(t types.Type) { e.typ = t }

// ----------------------------------------------------------------------------
// Program and declarations

// Program is the root of the tree: the top-level declaration list.
type Program struct {
	Decls []Decl
}

// Pos implements Node.
func (p *Program) Pos() token.Pos {
	if len(p.Decls) > 0 {
		return p.Decls[0].Pos()
	}
	return token.Pos{}
}

// TypeKind enumerates the written type forms.
type TypeKind uint8

const (
	IntKind TypeKind = iota
	BoolKind
	VoidKind
	StructKind
)

// TypeRef is a written type: int, bool, void or "struct name".
type TypeRef struct {
	KindPos token.Pos
	Kind    TypeKind
	Name    *Ident // struct name; nil unless Kind == StructKind
}

func (t *TypeRef) Pos() token.Pos { return t.KindPos }

func (t *TypeRef) String() string {
	switch t.Kind {
	case IntKind:
		return "int"
	case BoolKind:
		return "bool"
	case VoidKind:
		return "void"
	}
	return "struct " + t.Name.Name
}

// VarDecl is a variable declaration, at file scope, in a function body or
// as a struct field.
type VarDecl struct {
	DeclType *TypeRef
	Name     *Ident
}

func (d *VarDecl) Pos() token.Pos { return d.DeclType.Pos() }
func (d *VarDecl) declNode()      {}

// FormalDecl is a single value parameter of a function.
type FormalDecl struct {
	DeclType *TypeRef
	Name     *Ident
}

func (d *FormalDecl) Pos() token.Pos { return d.DeclType.Pos() }
func (d *FormalDecl) declNode()      {}

// FnDecl is a function declaration with its body.
type FnDecl struct {
	RetType *TypeRef
	Name    *Ident
	Formals []*FormalDecl
	Body    *FnBody
}

func (d *FnDecl) Pos() token.Pos { return d.RetType.Pos() }
func (d *FnDecl) declNode()      {}

// FnBody is the body of a function: leading local declarations followed
// by statements.
type FnBody struct {
	Decls []*VarDecl
	Stmts []Stmt
}

// StructDecl declares a record type and its fields.
type StructDecl struct {
	StructPos token.Pos
	Name      *Ident
	Fields    []*VarDecl
}

func (d *StructDecl) Pos() token.Pos { return d.StructPos }
func (d *StructDecl) declNode()      {}

// ----------------------------------------------------------------------------
// Statements

// Block is the declaration/statement list of an if branch or while body.
// Each block introduces a scope.
type Block struct {
	Decls []*VarDecl
	Stmts []Stmt
}

// AssignStmt is an assignment expression in statement position.
type AssignStmt struct {
	X *AssignExpr
}

func (s *AssignStmt) Pos() token.Pos { return s.X.Pos() }
func (s *AssignStmt) stmtNode()      {}

// IncStmt is a post-increment statement.
type IncStmt struct {
	X Expr
}

func (s *IncStmt) Pos() token.Pos { return s.X.Pos() }
func (s *IncStmt) stmtNode()      {}

// DecStmt is a post-decrement statement.
type DecStmt struct {
	X Expr
}

func (s *DecStmt) Pos() token.Pos { return s.X.Pos() }
func (s *DecStmt) stmtNode()      {}

// ReadStmt is "cin >> lvalue;".
type ReadStmt struct {
	CinPos token.Pos
	X      Expr
}

func (s *ReadStmt) Pos() token.Pos { return s.CinPos }
func (s *ReadStmt) stmtNode()      {}

// WriteStmt is "cout << exp;".
type WriteStmt struct {
	CoutPos token.Pos
	X       Expr
}

func (s *WriteStmt) Pos() token.Pos { return s.CoutPos }
func (s *WriteStmt) stmtNode()      {}

// IfStmt is an if statement, with an optional else branch.
type IfStmt struct {
	IfPos token.Pos
	Cond  Expr
	Then  *Block
	Else  *Block // nil when there is no else
}

func (s *IfStmt) Pos() token.Pos { return s.IfPos }
func (s *IfStmt) stmtNode()      {}

// WhileStmt is a while loop.
type WhileStmt struct {
	WhilePos token.Pos
	Cond     Expr
	Body     *Block
}

func (s *WhileStmt) Pos() token.Pos { return s.WhilePos }
func (s *WhileStmt) stmtNode()      {}

// CallStmt is a call expression in statement position.
type CallStmt struct {
	Call *CallExpr
}

func (s *CallStmt) Pos() token.Pos { return s.Call.Pos() }
func (s *CallStmt) stmtNode()      {}

// ReturnStmt is "return;" or "return exp;".
type ReturnStmt struct {
	ReturnPos token.Pos
	X         Expr // nil for a bare return
}

func (s *ReturnStmt) Pos() token.Pos { return s.ReturnPos }
func (s *ReturnStmt) stmtNode()      {}

// ----------------------------------------------------------------------------
// Expressions

// IntLit is an integer literal.
type IntLit struct {
	expr
	LitPos token.Pos
	Val    int32
}

func (e *IntLit) Pos() token.Pos { return e.LitPos }

// StrLit is a string literal; Val holds the decoded value (escapes
// resolved).
type StrLit struct {
	expr
	LitPos token.Pos
	Val    string
}

func (e *StrLit) Pos() token.Pos { return e.LitPos }

// BoolLit is "true" or "false".
type BoolLit struct {
	expr
	LitPos token.Pos
	Val    bool
}

func (e *BoolLit) Pos() token.Pos { return e.LitPos }

// Ident is an identifier use or declaration name. Sym is filled by name
// analysis; it stays nil when the identifier was undeclared (which is
// reported and absorbs later phases' interest).
type Ident struct {
	expr
	NamePos token.Pos
	Name    string
	Sym     types.Object
}

func (e *Ident) Pos() token.Pos { return e.NamePos }

// DotAccess is "loc.field". After name analysis, StructDecl holds the
// declaration of the field's struct type when the field is itself a
// struct variable, so chained accesses can resolve the next field table.
type DotAccess struct {
	expr
	X          Expr
	Sel        *Ident
	StructDecl *types.StructSym
}

func (e *DotAccess) Pos() token.Pos { return e.X.Pos() }

// AssignExpr is "lhs = rhs"; it is an expression whose value is the value
// assigned, so assignments chain.
type AssignExpr struct {
	expr
	Lhs Expr
	Rhs Expr
}

func (e *AssignExpr) Pos() token.Pos { return e.Lhs.Pos() }

// CallExpr is a function call.
type CallExpr struct {
	expr
	Fun  *Ident
	Args []Expr
}

func (e *CallExpr) Pos() token.Pos { return e.Fun.Pos() }

// UnaryOp enumerates the unary operators.
type UnaryOp uint8

const (
	Neg UnaryOp = iota // unary minus
	Not                // logical not
)

// UnaryExpr is a unary operation.
type UnaryExpr struct {
	expr
	OpPos token.Pos
	Op    UnaryOp
	X     Expr
}

func (e *UnaryExpr) Pos() token.Pos { return e.OpPos }

// BinOp enumerates the binary operators.
type BinOp uint8

const (
	Plus BinOp = iota
	Minus
	Times
	Divide
	And
	Or
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
)

var binOpStrings = [...]string{"+", "-", "*", "/", "&&", "||", "==", "!=", "<", ">", "<=", ">="}

// String implements fmt.Stringer.
func (op BinOp) String() string { return binOpStrings[op] }

// IsArith reports whether op is an arithmetic operator.
func (op BinOp) IsArith() bool { return op <= Divide }

// IsLogical reports whether op is && or ||.
func (op BinOp) IsLogical() bool { return op == And || op == Or }

// IsEquality reports whether op is == or !=.
func (op BinOp) IsEquality() bool { return op == Eq || op == Ne }

// IsRelational reports whether op is an ordering comparison.
func (op BinOp) IsRelational() bool { return op >= Lt }

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	expr
	Op BinOp
	X  Expr
	Y  Expr
}

func (e *BinaryExpr) Pos() token.Pos { return e.X.Pos() }
