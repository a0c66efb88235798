package ast

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Source position
// ---------------------------------------------------------------------------

// Position represents a line/column pair in source code (1-based).
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every AST node.
type Node interface {
	GetPos() Position
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node. Type returns the resolved
// result type string ("int", "float", "void", …) attached by the semantic
// pass; it is carried data, fixed before lowering and never recomputed.
type Expr interface {
	Node
	Type() string
	exprNode()
}

// ---------------------------------------------------------------------------
// Program (root)
// ---------------------------------------------------------------------------

// Program is the root of the tree. Units are top-level function declarations
// (*FuncDecl) and/or top-level variable declarations (*DeclStmt), in source
// order.
type Program struct {
	Units []Node
	Pos   Position
}

func (n *Program) GetPos() Position { return n.Pos }

// ---------------------------------------------------------------------------
// Top-level declarations
// ---------------------------------------------------------------------------

// Param is a single function parameter (type, name).
type Param struct {
	Type string
	Name string
}

// FuncDecl is a function definition, or a prototype when Body is nil.
type FuncDecl struct {
	ReturnType string
	Name       string
	Params     []Param
	Body       *BlockStmt
	Pos        Position
}

func (n *FuncDecl) GetPos() Position { return n.Pos }

// Declarator is one declared variable: a name plus an array length, zero for
// plain scalars.
type Declarator struct {
	Name     string
	ArrayLen int
}

// DeclStmt declares one or more variables of a single base type:
// int x, y[10];
type DeclStmt struct {
	DeclType string
	Vars     []Declarator
	Pos      Position
}

func (n *DeclStmt) GetPos() Position { return n.Pos }
func (n *DeclStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// BlockStmt is a brace-delimited list of statements.
type BlockStmt struct {
	Stmts []Stmt
	Pos   Position
}

func (n *BlockStmt) GetPos() Position { return n.Pos }
func (n *BlockStmt) stmtNode()        {}

// ExprStmt wraps an expression used as a statement. Expr is nil for the
// empty statement ";".
type ExprStmt struct {
	Expr Expr
	Pos  Position
}

func (n *ExprStmt) GetPos() Position { return n.Pos }
func (n *ExprStmt) stmtNode()        {}

// IfStmt: if (<cond>) <then> [else <else>]
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when there is no else part
	Pos  Position
}

func (n *IfStmt) GetPos() Position { return n.Pos }
func (n *IfStmt) stmtNode()        {}

// WhileStmt: while (<cond>) <body>
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Pos  Position
}

func (n *WhileStmt) GetPos() Position { return n.Pos }
func (n *WhileStmt) stmtNode()        {}

// ClauseKind tags the contents of a for-loop header slot.
type ClauseKind int

const (
	ClauseNone ClauseKind = iota // slot left empty
	ClauseStmt                   // slot holds a statement (e.g. a declaration)
	ClauseExpr                   // slot holds an expression
)

// ForClause is one slot of a for-loop header. The kind is fixed when the
// clause is built; lowering switches on it and never inspects dynamic node
// types.
type ForClause struct {
	Kind ClauseKind
	Stmt Stmt
	Expr Expr
}

// NoClause returns an absent for-loop clause.
func NoClause() ForClause { return ForClause{Kind: ClauseNone} }

// StmtClause wraps a statement as a for-loop clause.
func StmtClause(s Stmt) ForClause { return ForClause{Kind: ClauseStmt, Stmt: s} }

// ExprClause wraps an expression as a for-loop clause.
func ExprClause(e Expr) ForClause { return ForClause{Kind: ClauseExpr, Expr: e} }

// ForStmt: for (<init>; <cond>; <update>) <body>
type ForStmt struct {
	Init   ForClause
	Cond   ForClause
	Update Expr // nil when absent
	Body   Stmt
	Pos    Position
}

func (n *ForStmt) GetPos() Position { return n.Pos }
func (n *ForStmt) stmtNode()        {}

// ReturnStmt: return [<value>];
type ReturnStmt struct {
	Value Expr // nil for bare "return;"
	Pos   Position
}

func (n *ReturnStmt) GetPos() Position { return n.Pos }
func (n *ReturnStmt) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// VarRef references a variable, optionally subscripted: name or name[index].
type VarRef struct {
	Name  string
	Index Expr // nil for plain scalar references
	Typ   string
	Pos   Position
}

func (n *VarRef) GetPos() Position { return n.Pos }
func (n *VarRef) Type() string     { return n.Typ }
func (n *VarRef) exprNode()        {}

// HasIndex reports whether the reference is subscripted.
func (n *VarRef) HasIndex() bool { return n.Index != nil }

// Const is a literal constant; Value keeps the original lexeme.
type Const struct {
	Value string
	Typ   string
	Pos   Position
}

func (n *Const) GetPos() Position { return n.Pos }
func (n *Const) Type() string     { return n.Typ }
func (n *Const) exprNode()        {}

// UnaryExpr: <op><operand>  (e.g. -x, !ok)
type UnaryExpr struct {
	Op      string
	Operand Expr
	Typ     string
	Pos     Position
}

func (n *UnaryExpr) GetPos() Position { return n.Pos }
func (n *UnaryExpr) Type() string     { return n.Typ }
func (n *UnaryExpr) exprNode()        {}

// BinaryExpr: <left> <op> <right>
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Typ   string
	Pos   Position
}

func (n *BinaryExpr) GetPos() Position { return n.Pos }
func (n *BinaryExpr) Type() string     { return n.Typ }
func (n *BinaryExpr) exprNode()        {}

// AssignExpr: <target> = <value>. Assignment is an expression; its value is
// the assigned right-hand side.
type AssignExpr struct {
	Target *VarRef
	Value  Expr
	Typ    string
	Pos    Position
}

func (n *AssignExpr) GetPos() Position { return n.Pos }
func (n *AssignExpr) Type() string     { return n.Typ }
func (n *AssignExpr) exprNode()        {}

// CallExpr: <name>(<args>). A "void" result type marks a call whose result
// is discarded.
type CallExpr struct {
	Name string
	Args []Expr
	Typ  string
	Pos  Position
}

func (n *CallExpr) GetPos() Position { return n.Pos }
func (n *CallExpr) Type() string     { return n.Typ }
func (n *CallExpr) exprNode()        {}

// ---------------------------------------------------------------------------
// Debug printer – produces a human-readable tree representation
// ---------------------------------------------------------------------------

// DebugString returns a readable multi-line representation of the AST.
func DebugString(prog *Program) string {
	var b strings.Builder
	b.WriteString("Program\n")
	for _, unit := range prog.Units {
		switch u := unit.(type) {
		case *FuncDecl:
			debugFuncDecl(&b, u, 1)
		case *DeclStmt:
			debugStmt(&b, u, 1)
		}
	}
	return b.String()
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}

func debugFuncDecl(b *strings.Builder, fn *FuncDecl, level int) {
	writeIndent(b, level)
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type + " " + p.Name
	}
	fmt.Fprintf(b, "Func %s %s(%s)\n", fn.ReturnType, fn.Name, strings.Join(params, ", "))
	if fn.Body != nil {
		debugBlock(b, fn.Body, level+1)
	}
}

func debugBlock(b *strings.Builder, block *BlockStmt, level int) {
	writeIndent(b, level)
	fmt.Fprintf(b, "Block [%d statements]\n", len(block.Stmts))
	for _, s := range block.Stmts {
		debugStmt(b, s, level+1)
	}
}

func debugStmt(b *strings.Builder, s Stmt, level int) {
	switch s := s.(type) {
	case *DeclStmt:
		writeIndent(b, level)
		vars := make([]string, len(s.Vars))
		for i, v := range s.Vars {
			if v.ArrayLen > 0 {
				vars[i] = fmt.Sprintf("%s[%d]", v.Name, v.ArrayLen)
			} else {
				vars[i] = v.Name
			}
		}
		fmt.Fprintf(b, "Decl %s %s\n", s.DeclType, strings.Join(vars, ", "))
	case *ExprStmt:
		writeIndent(b, level)
		if s.Expr != nil {
			fmt.Fprintf(b, "ExprStmt %s\n", ExprString(s.Expr))
		} else {
			b.WriteString("ExprStmt <empty>\n")
		}
	case *ReturnStmt:
		writeIndent(b, level)
		if s.Value != nil {
			fmt.Fprintf(b, "ReturnStmt %s\n", ExprString(s.Value))
		} else {
			b.WriteString("ReturnStmt\n")
		}
	case *IfStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "IfStmt (%s)\n", ExprString(s.Cond))
		debugStmt(b, s.Then, level+1)
		if s.Else != nil {
			writeIndent(b, level+1)
			b.WriteString("Else:\n")
			debugStmt(b, s.Else, level+2)
		}
	case *WhileStmt:
		writeIndent(b, level)
		fmt.Fprintf(b, "WhileStmt (%s)\n", ExprString(s.Cond))
		debugStmt(b, s.Body, level+1)
	case *ForStmt:
		writeIndent(b, level)
		b.WriteString("ForStmt\n")
		writeIndent(b, level+1)
		fmt.Fprintf(b, "Init: %s\n", clauseString(s.Init))
		writeIndent(b, level+1)
		fmt.Fprintf(b, "Cond: %s\n", clauseString(s.Cond))
		writeIndent(b, level+1)
		if s.Update != nil {
			fmt.Fprintf(b, "Update: %s\n", ExprString(s.Update))
		} else {
			b.WriteString("Update: <none>\n")
		}
		debugStmt(b, s.Body, level+1)
	case *BlockStmt:
		debugBlock(b, s, level)
	default:
		writeIndent(b, level)
		b.WriteString("<unknown stmt>\n")
	}
}

// clauseString writes a one-line summary of a for-loop header slot.
func clauseString(c ForClause) string {
	switch c.Kind {
	case ClauseExpr:
		return ExprString(c.Expr)
	case ClauseStmt:
		var b strings.Builder
		debugStmt(&b, c.Stmt, 0)
		return strings.TrimSuffix(b.String(), "\n")
	default:
		return "<none>"
	}
}

// ExprString returns a concise one-line representation of an expression.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *VarRef:
		if e.HasIndex() {
			return fmt.Sprintf("%s[%s]", e.Name, ExprString(e.Index))
		}
		return e.Name
	case *Const:
		return e.Value
	case *UnaryExpr:
		return fmt.Sprintf("(%s%s)", e.Op, ExprString(e.Operand))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *AssignExpr:
		return fmt.Sprintf("(%s = %s)", ExprString(e.Target), ExprString(e.Value))
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
	default:
		return "<unknown expr>"
	}
}
