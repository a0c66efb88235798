package semantic

import (
	"fmt"
	"minicc/internal/ast"
)

// ---------------------------------------------------------------------------
// Diagnostic severity
// ---------------------------------------------------------------------------

// Severity indicates whether a diagnostic is an error or a warning.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Diagnostic
// ---------------------------------------------------------------------------

// Diagnostic represents a single message produced by the semantic analyser.
type Diagnostic struct {
	Message  string
	Pos      ast.Position
	Severity Severity
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d, col %d: %s: %s", d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}

// HasErrors returns true if any diagnostic in the slice is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Symbols
// ---------------------------------------------------------------------------

// symbol is one declared variable in some scope.
type symbol struct {
	typ     string
	isArray bool
}

// funcSig is a function signature collected during the pre-scan.
type funcSig struct {
	returnType string
	paramTypes []string
}

// ---------------------------------------------------------------------------
// Analyzer
// ---------------------------------------------------------------------------

// analyzer holds the state for one analysis pass.
type analyzer struct {
	scopes []map[string]symbol
	funcs  map[string]funcSig
	diags  []Diagnostic
}

// Analyze resolves names and annotates every expression node with its result
// type string. The code generator trusts these annotations completely, so
// this pass is where malformed programs must be rejected.
func Analyze(prog *ast.Program) []Diagnostic {
	a := &analyzer{funcs: map[string]funcSig{}}
	a.pushScope()

	// Pre-scan function signatures so calls can resolve in any order.
	for _, unit := range prog.Units {
		fn, ok := unit.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if prev, exists := a.funcs[fn.Name]; exists && prev.returnType != fn.ReturnType {
			a.errorf(fn.Pos, "function %q redeclared with a different return type", fn.Name)
		}
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		a.funcs[fn.Name] = funcSig{returnType: fn.ReturnType, paramTypes: params}
	}

	for _, unit := range prog.Units {
		switch u := unit.(type) {
		case *ast.DeclStmt:
			a.declStmt(u)
		case *ast.FuncDecl:
			a.funcDecl(u)
		}
	}

	return a.diags
}

func (a *analyzer) pushScope() {
	a.scopes = append(a.scopes, map[string]symbol{})
}

func (a *analyzer) popScope() {
	a.scopes = a.scopes[:len(a.scopes)-1]
}

// declare adds a symbol to the innermost scope.
func (a *analyzer) declare(name string, sym symbol, pos ast.Position) {
	scope := a.scopes[len(a.scopes)-1]
	if _, exists := scope[name]; exists {
		a.errorf(pos, "variable %q redeclared in the same scope", name)
		return
	}
	scope[name] = sym
}

// lookup resolves a name against the scope stack, innermost first.
func (a *analyzer) lookup(name string) (symbol, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if sym, ok := a.scopes[i][name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}

func (a *analyzer) errorf(pos ast.Position, format string, args ...any) {
	a.diags = append(a.diags, Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Severity: Error,
	})
}

func (a *analyzer) warnf(pos ast.Position, format string, args ...any) {
	a.diags = append(a.diags, Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Severity: Warning,
	})
}

// ---------------------------------------------------------------------------
// Declarations and statements
// ---------------------------------------------------------------------------

func (a *analyzer) funcDecl(fn *ast.FuncDecl) {
	if fn.Body == nil {
		return // prototype: signature already collected
	}
	a.pushScope()
	for _, p := range fn.Params {
		a.declare(p.Name, symbol{typ: p.Type}, fn.Pos)
	}
	a.blockInCurrentScope(fn.Body)
	a.popScope()
}

func (a *analyzer) declStmt(s *ast.DeclStmt) {
	if s.DeclType == "void" {
		a.errorf(s.Pos, "cannot declare variables of type void")
	}
	for _, v := range s.Vars {
		a.declare(v.Name, symbol{typ: s.DeclType, isArray: v.ArrayLen > 0}, s.Pos)
	}
}

func (a *analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		a.declStmt(s)
	case *ast.ExprStmt:
		if s.Expr != nil {
			a.expr(s.Expr)
		}
	case *ast.BlockStmt:
		a.pushScope()
		a.blockInCurrentScope(s)
		a.popScope()
	case *ast.IfStmt:
		a.expr(s.Cond)
		a.stmt(s.Then)
		if s.Else != nil {
			a.stmt(s.Else)
		}
	case *ast.WhileStmt:
		a.expr(s.Cond)
		a.stmt(s.Body)
	case *ast.ForStmt:
		// A declaration in the init slot scopes over the whole loop header
		// and body.
		a.pushScope()
		a.clause(s.Init)
		a.clause(s.Cond)
		if s.Update != nil {
			a.expr(s.Update)
		}
		a.stmt(s.Body)
		a.popScope()
	case *ast.ReturnStmt:
		if s.Value != nil {
			a.expr(s.Value)
		}
	}
}

func (a *analyzer) blockInCurrentScope(block *ast.BlockStmt) {
	for _, s := range block.Stmts {
		a.stmt(s)
	}
}

func (a *analyzer) clause(c ast.ForClause) {
	switch c.Kind {
	case ast.ClauseStmt:
		a.stmt(c.Stmt)
	case ast.ClauseExpr:
		a.expr(c.Expr)
	}
}

// ---------------------------------------------------------------------------
// Expression annotation
// ---------------------------------------------------------------------------

// comparisonOps yield "int" regardless of their operand types.
var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"&&": true, "||": true,
}

// expr annotates one expression node and returns its resolved type.
func (a *analyzer) expr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Const:
		return e.Typ // set at construction from the literal form

	case *ast.VarRef:
		sym, ok := a.lookup(e.Name)
		if !ok {
			a.errorf(e.Pos, "undeclared variable %q", e.Name)
			sym = symbol{typ: "int"}
		}
		if e.HasIndex() {
			if !sym.isArray {
				a.errorf(e.Pos, "subscript applied to non-array variable %q", e.Name)
			}
			a.expr(e.Index)
		}
		e.Typ = sym.typ
		return e.Typ

	case *ast.UnaryExpr:
		t := a.expr(e.Operand)
		if e.Op == "!" {
			e.Typ = "int"
		} else {
			e.Typ = t
		}
		return e.Typ

	case *ast.BinaryExpr:
		lt := a.expr(e.Left)
		rt := a.expr(e.Right)
		switch {
		case comparisonOps[e.Op]:
			e.Typ = "int"
		case lt == "float" || rt == "float":
			e.Typ = "float"
		default:
			e.Typ = "int"
		}
		return e.Typ

	case *ast.AssignExpr:
		a.expr(e.Value)
		e.Typ = a.expr(e.Target)
		return e.Typ

	case *ast.CallExpr:
		for _, arg := range e.Args {
			a.expr(arg)
		}
		sig, ok := a.funcs[e.Name]
		if !ok {
			a.errorf(e.Pos, "call to undeclared function %q", e.Name)
			e.Typ = "int"
			return e.Typ
		}
		if len(e.Args) != len(sig.paramTypes) {
			a.warnf(e.Pos, "function %q called with %d arguments, declared with %d",
				e.Name, len(e.Args), len(sig.paramTypes))
		}
		e.Typ = sig.returnType
		return e.Typ
	}
	return ""
}
