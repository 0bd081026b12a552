// Package parser implements a recursive-descent parser for C−−,
// producing the AST consumed by the semantic phases.
//
// Precedence, lowest to highest: assignment (right associative), ||, &&,
// the equality and relational operators (non-associative), additive,
// multiplicative, unary ! and -. Dot access applies to identifier chains
// only, as in the grammar.
//
// The parser stops at the first syntax error; lexical errors are reported
// through the same handler but scanning continues past them.
package parser

import (
	"strconv"

	"github.com/cmml/cmmc/pkg/lang/ast"
	"github.com/cmml/cmmc/pkg/lang/lexer"
	"github.com/cmml/cmmc/pkg/lang/token"
)

// ErrorHandler receives parse and scan diagnostics.
type ErrorHandler func(pos token.Pos, msg string)

type parser struct {
	toks []token.Token
	pos  int
	errh ErrorHandler
}

// bailout aborts parsing on the first syntax error; recovered in Parse.
type bailout struct{}

// Parse scans and parses src. Diagnostics go through errh. The returned
// program is nil when a syntax error stopped the parse; lexical errors do
// not stop it, the caller is expected to consult its diagnostic sink
// before running later phases.
func Parse(src string, errh ErrorHandler) (prog *ast.Program) {
	p := &parser{
		toks: lexer.New(src, lexer.ErrorHandler(errh)).Tokens(),
		errh: errh,
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog = nil
		}
	}()
	return p.parseProgram()
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) peek() token.Kind  { return p.toks[p.pos].Kind }
func (p *parser) next() token.Token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) peek2() token.Kind {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1].Kind
	}
	return token.EOF
}

func (p *parser) syntaxError() {
	if p.errh != nil {
		p.errh(p.cur().Pos, "syntax error")
	}
	panic(bailout{})
}

func (p *parser) expect(k token.Kind) token.Token {
	if p.peek() != k {
		p.syntaxError()
	}
	return p.next()
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.peek() != token.EOF {
		prog.Decls = append(prog.Decls, p.parseDecl())
	}
	return prog
}

// parseDecl parses a top-level declaration: a struct declaration, or a
// variable/function declaration introduced by a type.
func (p *parser) parseDecl() ast.Decl {
	if p.peek() == token.STRUCT && p.peek2() == token.IDENT {
		// "struct id {" declares a type; "struct id id" declares a
		// variable of that type.
		if p.toks[p.pos+2].Kind == token.LBRACE {
			return p.parseStructDecl()
		}
	}
	typ := p.parseType()
	name := p.parseIdent()
	switch p.peek() {
	case token.SEMICOLON:
		p.next()
		return &ast.VarDecl{DeclType: typ, Name: name}
	case token.LPAREN:
		return p.parseFnDecl(typ, name)
	}
	p.syntaxError()
	return nil
}

func (p *parser) parseType() *ast.TypeRef {
	tok := p.next()
	switch tok.Kind {
	case token.INT:
		return &ast.TypeRef{KindPos: tok.Pos, Kind: ast.IntKind}
	case token.BOOL:
		return &ast.TypeRef{KindPos: tok.Pos, Kind: ast.BoolKind}
	case token.VOID:
		return &ast.TypeRef{KindPos: tok.Pos, Kind: ast.VoidKind}
	case token.STRUCT:
		return &ast.TypeRef{KindPos: tok.Pos, Kind: ast.StructKind, Name: p.parseIdent()}
	}
	p.pos--
	p.syntaxError()
	return nil
}

func (p *parser) parseIdent() *ast.Ident {
	tok := p.expect(token.IDENT)
	return &ast.Ident{NamePos: tok.Pos, Name: tok.Lit}
}

func (p *parser) parseStructDecl() *ast.StructDecl {
	structTok := p.expect(token.STRUCT)
	name := p.parseIdent()
	p.expect(token.LBRACE)
	var fields []*ast.VarDecl
	for p.peek() != token.RBRACE {
		fields = append(fields, p.parseVarDecl())
	}
	if len(fields) == 0 {
		p.syntaxError()
	}
	p.expect(token.RBRACE)
	p.expect(token.SEMICOLON)
	return &ast.StructDecl{StructPos: structTok.Pos, Name: name, Fields: fields}
}

func (p *parser) parseVarDecl() *ast.VarDecl {
	typ := p.parseType()
	name := p.parseIdent()
	p.expect(token.SEMICOLON)
	return &ast.VarDecl{DeclType: typ, Name: name}
}

func (p *parser) parseFnDecl(ret *ast.TypeRef, name *ast.Ident) *ast.FnDecl {
	p.expect(token.LPAREN)
	var formals []*ast.FormalDecl
	if p.peek() != token.RPAREN {
		for {
			typ := p.parseType()
			formals = append(formals, &ast.FormalDecl{DeclType: typ, Name: p.parseIdent()})
			if p.peek() != token.COMMA {
				break
			}
			p.next()
		}
	}
	p.expect(token.RPAREN)
	decls, stmts := p.parseBody()
	return &ast.FnDecl{
		RetType: ret,
		Name:    name,
		Formals: formals,
		Body:    &ast.FnBody{Decls: decls, Stmts: stmts},
	}
}

func isTypeStart(k token.Kind) bool {
	return k == token.INT || k == token.BOOL || k == token.VOID || k == token.STRUCT
}

// parseBody parses "{ varDecl* stmt* }" and returns both lists.
func (p *parser) parseBody() ([]*ast.VarDecl, []ast.Stmt) {
	p.expect(token.LBRACE)
	var decls []*ast.VarDecl
	for isTypeStart(p.peek()) {
		decls = append(decls, p.parseVarDecl())
	}
	var stmts []ast.Stmt
	for p.peek() != token.RBRACE {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(token.RBRACE)
	return decls, stmts
}

func (p *parser) parseBlock() *ast.Block {
	decls, stmts := p.parseBody()
	return &ast.Block{Decls: decls, Stmts: stmts}
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case token.CIN:
		cin := p.next()
		p.expect(token.READ)
		lv := p.parseLvalue()
		p.expect(token.SEMICOLON)
		return &ast.ReadStmt{CinPos: cin.Pos, X: lv}
	case token.COUT:
		cout := p.next()
		p.expect(token.WRITE)
		x := p.parseExpr()
		p.expect(token.SEMICOLON)
		return &ast.WriteStmt{CoutPos: cout.Pos, X: x}
	case token.IF:
		ifTok := p.next()
		p.expect(token.LPAREN)
		cond := p.parseExpr()
		p.expect(token.RPAREN)
		then := p.parseBlock()
		var els *ast.Block
		if p.peek() == token.ELSE {
			p.next()
			els = p.parseBlock()
		}
		return &ast.IfStmt{IfPos: ifTok.Pos, Cond: cond, Then: then, Else: els}
	case token.WHILE:
		whTok := p.next()
		p.expect(token.LPAREN)
		cond := p.parseExpr()
		p.expect(token.RPAREN)
		return &ast.WhileStmt{WhilePos: whTok.Pos, Cond: cond, Body: p.parseBlock()}
	case token.RETURN:
		ret := p.next()
		var x ast.Expr
		if p.peek() != token.SEMICOLON {
			x = p.parseExpr()
		}
		p.expect(token.SEMICOLON)
		return &ast.ReturnStmt{ReturnPos: ret.Pos, X: x}
	case token.IDENT:
		if p.peek2() == token.LPAREN {
			call := p.parseCall(p.parseIdent())
			p.expect(token.SEMICOLON)
			return &ast.CallStmt{Call: call}
		}
		lv := p.parseLvalue()
		switch p.peek() {
		case token.ASSIGN:
			p.next()
			rhs := p.parseExpr()
			p.expect(token.SEMICOLON)
			return &ast.AssignStmt{X: &ast.AssignExpr{Lhs: lv, Rhs: rhs}}
		case token.PLUSPLUS:
			p.next()
			p.expect(token.SEMICOLON)
			return &ast.IncStmt{X: lv}
		case token.MINUSMINUS:
			p.next()
			p.expect(token.SEMICOLON)
			return &ast.DecStmt{X: lv}
		}
	}
	p.syntaxError()
	return nil
}

// parseLvalue parses "id ('.' id)*".
func (p *parser) parseLvalue() ast.Expr {
	var lv ast.Expr = p.parseIdent()
	for p.peek() == token.DOT {
		p.next()
		lv = &ast.DotAccess{X: lv, Sel: p.parseIdent()}
	}
	return lv
}

func (p *parser) parseCall(fun *ast.Ident) *ast.CallExpr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	if p.peek() != token.RPAREN {
		for {
			args = append(args, p.parseExpr())
			if p.peek() != token.COMMA {
				break
			}
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return &ast.CallExpr{Fun: fun, Args: args}
}

// parseExpr parses an assignment level expression; assignment is right
// associative and its left side must be an lvalue.
func (p *parser) parseExpr() ast.Expr {
	lhs := p.parseOr()
	if p.peek() != token.ASSIGN {
		return lhs
	}
	switch lhs.(type) {
	case *ast.Ident, *ast.DotAccess:
	default:
		p.syntaxError()
	}
	p.next()
	return &ast.AssignExpr{Lhs: lhs, Rhs: p.parseExpr()}
}

func (p *parser) parseOr() ast.Expr {
	x := p.parseAnd()
	for p.peek() == token.OR {
		p.next()
		x = &ast.BinaryExpr{Op: ast.Or, X: x, Y: p.parseAnd()}
	}
	return x
}

func (p *parser) parseAnd() ast.Expr {
	x := p.parseCompare()
	for p.peek() == token.AND {
		p.next()
		x = &ast.BinaryExpr{Op: ast.And, X: x, Y: p.parseCompare()}
	}
	return x
}

var compareOps = map[token.Kind]ast.BinOp{
	token.EQUALS:    ast.Eq,
	token.NOTEQUALS: ast.Ne,
	token.LESS:      ast.Lt,
	token.GREATER:   ast.Gt,
	token.LESSEQ:    ast.Le,
	token.GREATEREQ: ast.Ge,
}

// parseCompare parses the non-associative comparison level: at most one
// comparison operator per operand pair.
func (p *parser) parseCompare() ast.Expr {
	x := p.parseAdditive()
	if op, ok := compareOps[p.peek()]; ok {
		p.next()
		x = &ast.BinaryExpr{Op: op, X: x, Y: p.parseAdditive()}
		if _, again := compareOps[p.peek()]; again {
			p.syntaxError()
		}
	}
	return x
}

func (p *parser) parseAdditive() ast.Expr {
	x := p.parseMultiplicative()
	for {
		switch p.peek() {
		case token.PLUS:
			p.next()
			x = &ast.BinaryExpr{Op: ast.Plus, X: x, Y: p.parseMultiplicative()}
		case token.MINUS:
			p.next()
			x = &ast.BinaryExpr{Op: ast.Minus, X: x, Y: p.parseMultiplicative()}
		default:
			return x
		}
	}
}

func (p *parser) parseMultiplicative() ast.Expr {
	x := p.parseUnary()
	for {
		switch p.peek() {
		case token.TIMES:
			p.next()
			x = &ast.BinaryExpr{Op: ast.Times, X: x, Y: p.parseUnary()}
		case token.DIVIDE:
			p.next()
			x = &ast.BinaryExpr{Op: ast.Divide, X: x, Y: p.parseUnary()}
		default:
			return x
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	switch p.peek() {
	case token.MINUS:
		tok := p.next()
		return &ast.UnaryExpr{OpPos: tok.Pos, Op: ast.Neg, X: p.parseUnary()}
	case token.NOT:
		tok := p.next()
		return &ast.UnaryExpr{OpPos: tok.Pos, Op: ast.Not, X: p.parseUnary()}
	}
	return p.parseTerm()
}

func (p *parser) parseTerm() ast.Expr {
	switch p.peek() {
	case token.INTLIT:
		tok := p.next()
		v, _ := strconv.ParseInt(tok.Lit, 10, 64)
		return &ast.IntLit{LitPos: tok.Pos, Val: int32(v)}
	case token.STRLIT:
		tok := p.next()
		return &ast.StrLit{LitPos: tok.Pos, Val: tok.Lit}
	case token.TRUE:
		tok := p.next()
		return &ast.BoolLit{LitPos: tok.Pos, Val: true}
	case token.FALSE:
		tok := p.next()
		return &ast.BoolLit{LitPos: tok.Pos, Val: false}
	case token.LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	case token.IDENT:
		if p.peek2() == token.LPAREN {
			return p.parseCall(p.parseIdent())
		}
		return p.parseLvalue()
	}
	p.syntaxError()
	return nil
}
