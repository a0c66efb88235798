package codegen

import (
	"fmt"
	"minicc/internal/ast"
	"strings"
)

// ---------------------------------------------------------------------------
// Lowerer — translates an AST Program into a TAC Listing
// ---------------------------------------------------------------------------

// Lowerer walks the AST and produces three-address instructions. All mutable
// lowering state lives here, scoped to a single Lower call, so independent
// compilations never share anything.
type Lowerer struct {
	out *Listing

	// Monotonic allocators, never reset for the duration of a program.
	tempCount  int
	labelCount int

	// cache maps a scalar variable name to the temporary last known to hold
	// its value. It is cleared at every function entry and rebuilt from
	// lastAccess after a for-loop condition.
	cache map[string]string

	// lastAccess records the most recent temporary returned per variable
	// name. A for-loop condition clears it, lowers under forceFresh, then
	// reseeds the cache from it so the body sees the bindings the condition
	// just observed.
	lastAccess map[string]string

	// forceFresh disables cache reuse while a for-loop condition is lowered;
	// the condition runs every iteration and must reload every scalar.
	forceFresh bool
}

// Lower translates a program into a TAC listing. Lowering is a single
// deterministic depth-first pass; the same AST always yields the same text.
func Lower(prog *ast.Program) *Listing {
	l := &Lowerer{
		out:        &Listing{},
		cache:      map[string]string{},
		lastAccess: map[string]string{},
	}
	l.lowerProgram(prog)
	return l.out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// freshTemp allocates the next temporary id.
func (l *Lowerer) freshTemp() string {
	t := fmt.Sprintf("t%d", l.tempCount)
	l.tempCount++
	return t
}

// freshLabel allocates the next label id.
func (l *Lowerer) freshLabel() string {
	lbl := fmt.Sprintf("L%d", l.labelCount)
	l.labelCount++
	return lbl
}

func (l *Lowerer) emit(instr Instr) {
	l.out.Emit(instr)
}

// ---------------------------------------------------------------------------
// Program and top-level units
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerProgram(prog *ast.Program) {
	for _, unit := range prog.Units {
		switch u := unit.(type) {
		case *ast.FuncDecl:
			l.lowerFuncDecl(u)
		case *ast.DeclStmt:
			l.lowerDeclStmt(u)
		}
		// Anything else in a unit slot lowers to nothing.
	}
}

func (l *Lowerer) lowerFuncDecl(fn *ast.FuncDecl) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type + " " + p.Name
	}
	l.emit(Instr{Op: OpComment, Text: fmt.Sprintf("Function: %s %s(%s)",
		fn.ReturnType, fn.Name, strings.Join(params, ", "))})

	// New function scope: no cached scalar survives a function boundary.
	l.cache = map[string]string{}

	if fn.Body != nil {
		l.lowerBlock(fn.Body)
	}
	l.emit(Instr{Op: OpBlank})
}

func (l *Lowerer) lowerDeclStmt(s *ast.DeclStmt) {
	for _, v := range s.Vars {
		text := fmt.Sprintf("Declaration: %s %s", s.DeclType, v.Name)
		if v.ArrayLen > 0 {
			text += fmt.Sprintf("[%d]", v.ArrayLen)
		}
		l.emit(Instr{Op: OpComment, Text: text})
	}
}

// ---------------------------------------------------------------------------
// Statement lowering
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerBlock(block *ast.BlockStmt) {
	for _, stmt := range block.Stmts {
		l.lowerStmt(stmt)
	}
}

func (l *Lowerer) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.DeclStmt:
		l.lowerDeclStmt(s)
	case *ast.ExprStmt:
		if s.Expr != nil {
			l.lowerExpr(s.Expr)
		}
	case *ast.BlockStmt:
		l.lowerBlock(s)
	case *ast.IfStmt:
		l.lowerIfStmt(s)
	case *ast.WhileStmt:
		l.lowerWhileStmt(s)
	case *ast.ForStmt:
		l.lowerForStmt(s)
	case *ast.ReturnStmt:
		l.lowerReturnStmt(s)
	}
	// Unknown statement kinds lower to nothing.
}

func (l *Lowerer) lowerIfStmt(s *ast.IfStmt) {
	condTemp := l.lowerExpr(s.Cond)

	trueLabel := l.freshLabel()
	falseLabel := l.freshLabel()
	endLabel := l.freshLabel()

	// Canonical two-way branch, even though one arm is a fallthrough.
	l.emit(Instr{Op: OpIfGoto, Src1: condTemp, Label: trueLabel})
	l.emit(Instr{Op: OpGoto, Label: falseLabel})

	l.emit(Instr{Op: OpLabel, Label: trueLabel})
	if s.Then != nil {
		l.lowerStmt(s.Then)
	}
	l.emit(Instr{Op: OpGoto, Label: endLabel})

	l.emit(Instr{Op: OpLabel, Label: falseLabel})
	if s.Else != nil {
		l.lowerStmt(s.Else)
	}
	l.emit(Instr{Op: OpLabel, Label: endLabel})
}

func (l *Lowerer) lowerWhileStmt(s *ast.WhileStmt) {
	startLabel := l.freshLabel()
	bodyLabel := l.freshLabel()
	endLabel := l.freshLabel()

	l.emit(Instr{Op: OpLabel, Label: startLabel})
	condTemp := l.lowerExpr(s.Cond)
	l.emit(Instr{Op: OpIfGoto, Src1: condTemp, Label: bodyLabel})
	l.emit(Instr{Op: OpGoto, Label: endLabel})

	l.emit(Instr{Op: OpLabel, Label: bodyLabel})
	if s.Body != nil {
		l.lowerStmt(s.Body)
	}
	l.emit(Instr{Op: OpGoto, Label: startLabel})
	l.emit(Instr{Op: OpLabel, Label: endLabel})
}

func (l *Lowerer) lowerForStmt(s *ast.ForStmt) {
	switch s.Init.Kind {
	case ast.ClauseStmt:
		l.lowerStmt(s.Init.Stmt)
	case ast.ClauseExpr:
		l.lowerExpr(s.Init.Expr)
	}

	startLabel := l.freshLabel()
	bodyLabel := l.freshLabel()
	endLabel := l.freshLabel()
	l.emit(Instr{Op: OpLabel, Label: startLabel})

	condTemp := "1" // always true when no condition is given
	if s.Cond.Kind != ast.ClauseNone {
		// The condition is re-evaluated every iteration, so no scalar read
		// inside it may reuse a temporary cached from before the loop.
		l.lastAccess = map[string]string{}
		l.forceFresh = true
		switch s.Cond.Kind {
		case ast.ClauseExpr:
			condTemp = l.lowerExpr(s.Cond.Expr)
		case ast.ClauseStmt:
			l.lowerStmt(s.Cond.Stmt)
		}
		l.forceFresh = false

		// The body starts with the bindings the condition just observed,
		// not with whatever was cached before the loop.
		l.cache = make(map[string]string, len(l.lastAccess))
		for name, temp := range l.lastAccess {
			l.cache[name] = temp
		}
	}

	l.emit(Instr{Op: OpIfGoto, Src1: condTemp, Label: bodyLabel})
	l.emit(Instr{Op: OpGoto, Label: endLabel})

	l.emit(Instr{Op: OpLabel, Label: bodyLabel})
	if s.Body != nil {
		l.lowerStmt(s.Body)
	}
	if s.Update != nil {
		l.lowerExpr(s.Update)
	}
	l.emit(Instr{Op: OpGoto, Label: startLabel})
	l.emit(Instr{Op: OpLabel, Label: endLabel})
}

func (l *Lowerer) lowerReturnStmt(s *ast.ReturnStmt) {
	if s.Value != nil {
		valTemp := l.lowerExpr(s.Value)
		l.emit(Instr{Op: OpReturn, Src1: valTemp})
	} else {
		l.emit(Instr{Op: OpReturn})
	}
}

// ---------------------------------------------------------------------------
// Expression lowering — returns the temporary holding the result
// ---------------------------------------------------------------------------

func (l *Lowerer) lowerExpr(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Const:
		return l.lowerConst(e)
	case *ast.VarRef:
		return l.lowerVarRef(e)
	case *ast.UnaryExpr:
		return l.lowerUnaryExpr(e)
	case *ast.BinaryExpr:
		return l.lowerBinaryExpr(e)
	case *ast.AssignExpr:
		return l.lowerAssignExpr(e)
	case *ast.CallExpr:
		return l.lowerCallExpr(e)
	}
	// Unknown expression kinds lower to nothing.
	return ""
}

func (l *Lowerer) lowerConst(e *ast.Const) string {
	temp := l.freshTemp()
	l.emit(Instr{Op: OpAssign, Dst: temp, Src1: e.Value})
	return temp
}

func (l *Lowerer) lowerVarRef(e *ast.VarRef) string {
	if !e.HasIndex() {
		if temp, ok := l.cache[e.Name]; ok && !l.forceFresh {
			// Reuse the cached temporary. The temp id is still consumed, so
			// ids burned here never appear in the output.
			l.tempCount++
			l.lastAccess[e.Name] = temp
			return temp
		}
		temp := l.freshTemp()
		l.emit(Instr{Op: OpAssign, Dst: temp, Src1: e.Name})
		l.cache[e.Name] = temp
		l.lastAccess[e.Name] = temp
		return temp
	}

	// Array elements are never cached; every indexed read loads fresh.
	idxTemp := l.lowerExpr(e.Index)
	temp := l.freshTemp()
	l.emit(Instr{Op: OpLoadIndex, Dst: temp, Name: e.Name, Src2: idxTemp})
	return temp
}

func (l *Lowerer) lowerUnaryExpr(e *ast.UnaryExpr) string {
	valTemp := l.lowerExpr(e.Operand)
	temp := l.freshTemp()
	l.emit(Instr{Op: OpUnary, Dst: temp, Operator: e.Op, Src1: valTemp})
	return temp
}

func (l *Lowerer) lowerBinaryExpr(e *ast.BinaryExpr) string {
	// Left-to-right evaluation order, fixed.
	leftTemp := l.lowerExpr(e.Left)
	rightTemp := l.lowerExpr(e.Right)
	temp := l.freshTemp()
	l.emit(Instr{Op: OpBinary, Dst: temp, Src1: leftTemp, Operator: e.Op, Src2: rightTemp})
	return temp
}

func (l *Lowerer) lowerAssignExpr(e *ast.AssignExpr) string {
	rval := l.lowerExpr(e.Value)

	if e.Target.HasIndex() {
		idxTemp := l.lowerExpr(e.Target.Index)
		l.emit(Instr{Op: OpStoreIndex, Name: e.Target.Name, Src2: idxTemp, Src1: rval})
	} else {
		l.emit(Instr{Op: OpStore, Name: e.Target.Name, Src1: rval})
		// The assigned scalar is now held by the right-hand temporary; a
		// following read reuses it instead of reloading.
		l.cache[e.Target.Name] = rval
	}
	return rval
}

func (l *Lowerer) lowerCallExpr(e *ast.CallExpr) string {
	for _, arg := range e.Args {
		var argTemp string
		if v, ok := arg.(*ast.VarRef); ok {
			// Call arguments are always loaded explicitly, never served
			// from the cache.
			if v.HasIndex() {
				idxTemp := l.lowerExpr(v.Index)
				argTemp = l.freshTemp()
				l.emit(Instr{Op: OpLoadIndex, Dst: argTemp, Name: v.Name, Src2: idxTemp})
			} else {
				argTemp = l.freshTemp()
				l.emit(Instr{Op: OpAssign, Dst: argTemp, Src1: v.Name})
			}
		} else {
			argTemp = l.lowerExpr(arg)
		}
		l.emit(Instr{Op: OpParam, Src1: argTemp})
	}

	if e.Type() == "void" {
		l.emit(Instr{Op: OpCall, Name: e.Name, Argc: len(e.Args)})
		return ""
	}

	temp := l.freshTemp()
	l.emit(Instr{Op: OpCall, Dst: temp, Name: e.Name, Argc: len(e.Args)})
	return temp
}
