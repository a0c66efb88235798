package parser

import (
	"fmt"
	"minicc/internal/ast"
	"minicc/internal/lexer"
	"strconv"
)

// ---------------------------------------------------------------------------
// Precedence levels for expression parsing
// ---------------------------------------------------------------------------

const (
	precNone       = iota
	precOr         // ||
	precAnd        // &&
	precEquality   // == !=
	precComparison // < > <= >=
	precAdditive   // + -
	precMultiply   // * / %
)

// binaryPrec maps binary operator token types to their precedence.
var binaryPrec = map[string]int{
	lexer.OR:      precOr,
	lexer.AND:     precAnd,
	lexer.EQ:      precEquality,
	lexer.NEQ:     precEquality,
	lexer.LT:      precComparison,
	lexer.GT:      precComparison,
	lexer.LTE:     precComparison,
	lexer.GTE:     precComparison,
	lexer.PLUS:    precAdditive,
	lexer.MINUS:   precAdditive,
	lexer.STAR:    precMultiply,
	lexer.SLASH:   precMultiply,
	lexer.PERCENT: precMultiply,
}

// typeTokens are the token types that can start a declaration.
var typeTokens = map[string]bool{
	lexer.INT_TYPE:   true,
	lexer.FLOAT_TYPE: true,
	lexer.VOID:       true,
}

// ---------------------------------------------------------------------------
// ParseError
// ---------------------------------------------------------------------------

// ParseError represents a single error found during parsing.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []ParseError
}

// Parse is the main entry point. It takes a token slice (as produced by
// lexer.Lex) and returns an AST program plus any parse errors collected.
func Parse(tokens []lexer.Token) (*ast.Program, []ParseError) {
	p := &Parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	return prog, p.errors
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// peek returns the current token without consuming it.
func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: lexer.EOF}
}

// peekAt returns the token at a given offset from the current position.
func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= 0 && idx < len(p.tokens) {
		return p.tokens[idx]
	}
	return lexer.Token{Type: lexer.EOF}
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// check returns true if the current token has the given type.
func (p *Parser) check(typ string) bool {
	return p.peek().Type == typ
}

// match consumes the current token if it matches any of the given types.
func (p *Parser) match(types ...string) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches typ; otherwise it records
// an error and returns the current token WITHOUT advancing.
func (p *Parser) expect(typ string, msg string) lexer.Token {
	if p.check(typ) {
		return p.advance()
	}
	tok := p.peek()
	p.errorAt(tok, msg)
	return tok
}

func (p *Parser) errorAt(tok lexer.Token, msg string) {
	p.errors = append(p.errors, ParseError{Message: msg, Line: tok.Line, Column: tok.Column})
}

func pos(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// synchronize skips tokens until a likely statement boundary, so one error
// does not cascade into dozens of follow-on errors.
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) {
		if p.match(lexer.SEMICOLON) {
			return
		}
		switch p.peek().Type {
		case lexer.RBRACE, lexer.IF, lexer.WHILE, lexer.FOR, lexer.RETURN,
			lexer.INT_TYPE, lexer.FLOAT_TYPE, lexer.VOID:
			return
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Program and top-level declarations
// ---------------------------------------------------------------------------

// parseProgram parses top-level units until EOF. Every unit starts with a
// type name: either a function (name followed by "(") or a variable
// declaration.
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{Pos: pos(p.peek())}

	for !p.check(lexer.EOF) {
		start := p.pos
		if !typeTokens[p.peek().Type] {
			p.errorAt(p.peek(), "expected a type name at top level")
			p.synchronize()
			if p.pos == start {
				p.advance()
			}
			continue
		}

		if p.peekAt(1).Type == lexer.IDENT && p.peekAt(2).Type == lexer.LPAREN {
			if fn := p.parseFuncDecl(); fn != nil {
				prog.Units = append(prog.Units, fn)
			}
		} else {
			if decl := p.parseDeclStmt(); decl != nil {
				prog.Units = append(prog.Units, decl)
			}
		}
		if p.pos == start {
			p.advance()
		}
	}

	return prog
}

// parseFuncDecl parses: <type> <name> ( <params> ) <block | ;>
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	typeTok := p.advance()
	nameTok := p.expect(lexer.IDENT, "expected function name")
	p.expect(lexer.LPAREN, "expected '(' after function name")

	fn := &ast.FuncDecl{
		ReturnType: typeTok.Value,
		Name:       nameTok.Value,
		Pos:        pos(typeTok),
	}

	if !p.check(lexer.RPAREN) {
		for {
			paramType := p.peek()
			if !typeTokens[paramType.Type] {
				p.errorAt(paramType, "expected parameter type")
				break
			}
			p.advance()
			paramName := p.expect(lexer.IDENT, "expected parameter name")
			fn.Params = append(fn.Params, ast.Param{Type: paramType.Value, Name: paramName.Value})
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	p.expect(lexer.RPAREN, "expected ')' after parameter list")

	// A prototype ends with ';'; a definition has a body block.
	if p.match(lexer.SEMICOLON) {
		return fn
	}
	fn.Body = p.parseBlock()
	return fn
}

// parseDeclStmt parses: <type> <declarator> (, <declarator>)* ;
// where declarator is <name> or <name>[<int>].
func (p *Parser) parseDeclStmt() *ast.DeclStmt {
	typeTok := p.advance()
	decl := &ast.DeclStmt{DeclType: typeTok.Value, Pos: pos(typeTok)}

	for {
		nameTok := p.expect(lexer.IDENT, "expected variable name")
		if nameTok.Type != lexer.IDENT {
			p.synchronize()
			return decl
		}
		length := 0
		if p.match(lexer.LBRACKET) {
			sizeTok := p.expect(lexer.INT, "expected array length")
			if sizeTok.Type == lexer.INT {
				length, _ = strconv.Atoi(sizeTok.Value)
			}
			p.expect(lexer.RBRACKET, "expected ']' after array length")
		}
		decl.Vars = append(decl.Vars, ast.Declarator{Name: nameTok.Value, ArrayLen: length})
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.SEMICOLON, "expected ';' after declaration")
	return decl
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peek().Type {
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.INT_TYPE, lexer.FLOAT_TYPE, lexer.VOID:
		return p.parseDeclStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	lbrace := p.expect(lexer.LBRACE, "expected '{'")
	block := &ast.BlockStmt{Pos: pos(lbrace)}

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		start := p.pos
		if stmt := p.parseStmt(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.pos == start {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE, "expected '}' at end of block")
	return block
}

func (p *Parser) parseIfStmt() ast.Stmt {
	ifTok := p.advance()
	p.expect(lexer.LPAREN, "expected '(' after 'if'")
	cond := p.parseExpr()
	p.expect(lexer.RPAREN, "expected ')' after if condition")
	then := p.parseStmt()

	stmt := &ast.IfStmt{Cond: cond, Then: then, Pos: pos(ifTok)}
	if p.match(lexer.ELSE) {
		stmt.Else = p.parseStmt()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	whileTok := p.advance()
	p.expect(lexer.LPAREN, "expected '(' after 'while'")
	cond := p.parseExpr()
	p.expect(lexer.RPAREN, "expected ')' after while condition")
	body := p.parseStmt()
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: pos(whileTok)}
}

// parseForStmt parses: for ( <init>? ; <cond>? ; <update>? ) <body>
// The init and cond slots become tagged clauses here, at construction time:
// a declaration init is a statement clause, anything else is an expression
// clause, and an empty slot stays absent.
func (p *Parser) parseForStmt() ast.Stmt {
	forTok := p.advance()
	p.expect(lexer.LPAREN, "expected '(' after 'for'")

	init := ast.NoClause()
	if !p.check(lexer.SEMICOLON) {
		if typeTokens[p.peek().Type] {
			// parseDeclStmt consumes the terminating ';'.
			init = ast.StmtClause(p.parseDeclStmt())
		} else {
			init = ast.ExprClause(p.parseExpr())
			p.expect(lexer.SEMICOLON, "expected ';' after for-loop init")
		}
	} else {
		p.advance()
	}

	cond := ast.NoClause()
	if !p.check(lexer.SEMICOLON) {
		cond = ast.ExprClause(p.parseExpr())
	}
	p.expect(lexer.SEMICOLON, "expected ';' after for-loop condition")

	var update ast.Expr
	if !p.check(lexer.RPAREN) {
		update = p.parseExpr()
	}
	p.expect(lexer.RPAREN, "expected ')' after for-loop header")

	body := p.parseStmt()
	return &ast.ForStmt{Init: init, Cond: cond, Update: update, Body: body, Pos: pos(forTok)}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	retTok := p.advance()
	stmt := &ast.ReturnStmt{Pos: pos(retTok)}
	if !p.check(lexer.SEMICOLON) {
		stmt.Value = p.parseExpr()
	}
	p.expect(lexer.SEMICOLON, "expected ';' after return statement")
	return stmt
}

// parseExprStmt parses an expression statement, including the empty
// statement ";" which wraps no expression at all.
func (p *Parser) parseExprStmt() ast.Stmt {
	tok := p.peek()
	if p.match(lexer.SEMICOLON) {
		return &ast.ExprStmt{Pos: pos(tok)}
	}
	expr := p.parseExpr()
	p.expect(lexer.SEMICOLON, "expected ';' after expression")
	return &ast.ExprStmt{Expr: expr, Pos: pos(tok)}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// parseExpr parses a full expression. Assignment sits at the bottom of the
// precedence ladder and is right-associative.
func (p *Parser) parseExpr() ast.Expr {
	left := p.parseBinaryExpr(precNone + 1)

	if p.check(lexer.ASSIGN) {
		eq := p.advance()
		value := p.parseExpr()
		target, ok := left.(*ast.VarRef)
		if !ok {
			p.errorAt(eq, "invalid assignment target")
			return left
		}
		return &ast.AssignExpr{Target: target, Value: value, Pos: target.Pos}
	}
	return left
}

// parseBinaryExpr implements precedence climbing over the binaryPrec table.
func (p *Parser) parseBinaryExpr(minPrec int) ast.Expr {
	left := p.parseUnaryExpr()

	for {
		prec, ok := binaryPrec[p.peek().Type]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinaryExpr(prec + 1)
		left = &ast.BinaryExpr{Op: opTok.Value, Left: left, Right: right, Pos: pos(opTok)}
	}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	if p.check(lexer.MINUS) || p.check(lexer.BANG) {
		opTok := p.advance()
		operand := p.parseUnaryExpr()
		return &ast.UnaryExpr{Op: opTok.Value, Operand: operand, Pos: pos(opTok)}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()

	switch tok.Type {
	case lexer.INT:
		p.advance()
		return &ast.Const{Value: tok.Value, Typ: "int", Pos: pos(tok)}
	case lexer.FLOAT:
		p.advance()
		return &ast.Const{Value: tok.Value, Typ: "float", Pos: pos(tok)}
	case lexer.LPAREN:
		p.advance()
		expr := p.parseExpr()
		p.expect(lexer.RPAREN, "expected ')' after expression")
		return expr
	case lexer.IDENT:
		p.advance()
		// Function call?
		if p.match(lexer.LPAREN) {
			call := &ast.CallExpr{Name: tok.Value, Pos: pos(tok)}
			if !p.check(lexer.RPAREN) {
				for {
					call.Args = append(call.Args, p.parseExpr())
					if !p.match(lexer.COMMA) {
						break
					}
				}
			}
			p.expect(lexer.RPAREN, "expected ')' after call arguments")
			return call
		}
		// Array subscript?
		ref := &ast.VarRef{Name: tok.Value, Pos: pos(tok)}
		if p.match(lexer.LBRACKET) {
			ref.Index = p.parseExpr()
			p.expect(lexer.RBRACKET, "expected ']' after array index")
		}
		return ref
	}

	p.errorAt(tok, fmt.Sprintf("unexpected token %q in expression", tok.Value))
	p.advance()
	return &ast.Const{Value: "0", Typ: "int", Pos: pos(tok)}
}
