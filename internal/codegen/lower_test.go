package codegen

import (
	"fmt"
	"testing"

	"minicc/internal/ast"
	"minicc/internal/lexer"
	"minicc/internal/parser"
	"minicc/internal/semantic"

	"github.com/nalgeon/be"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// compile runs the full front end on src and lowers the result.
func compile(t *testing.T, src string) *Listing {
	t.Helper()
	tokens, lexErrs := lexer.Lex(src)
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	prog, parseErrs := parser.Parse(tokens)
	if len(parseErrs) > 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	if diags := semantic.Analyze(prog); semantic.HasErrors(diags) {
		t.Fatalf("semantic errors: %v", diags)
	}
	return Lower(prog)
}

// testLowerer builds a Lowerer for lowering hand-built AST fragments.
func testLowerer() *Lowerer {
	return &Lowerer{
		out:        &Listing{},
		cache:      map[string]string{},
		lastAccess: map[string]string{},
	}
}

func intConst(v string) *ast.Const { return &ast.Const{Value: v, Typ: "int"} }

func intVar(name string) *ast.VarRef { return &ast.VarRef{Name: name, Typ: "int"} }

func assign(name string, value ast.Expr) *ast.AssignExpr {
	return &ast.AssignExpr{Target: intVar(name), Value: value, Typ: "int"}
}

// ---------------------------------------------------------------------------
// Expression lowering
// ---------------------------------------------------------------------------

func TestLowerConstant(t *testing.T) {
	l := testLowerer()
	result := l.lowerExpr(intConst("42"))
	be.Equal(t, result, "t0")
	be.Equal(t, l.out.Lines(), []string{"t0 = 42"})
}

func TestLowerBinaryLeftToRight(t *testing.T) {
	l := testLowerer()
	result := l.lowerExpr(&ast.BinaryExpr{
		Op: "-", Left: intConst("7"), Right: intConst("3"), Typ: "int",
	})
	be.Equal(t, result, "t2")
	be.Equal(t, l.out.Lines(), []string{"t0 = 7", "t1 = 3", "t2 = t0 - t1"})
}

func TestLowerUnary(t *testing.T) {
	l := testLowerer()
	result := l.lowerExpr(&ast.UnaryExpr{Op: "-", Operand: intVar("x"), Typ: "int"})
	be.Equal(t, result, "t1")
	be.Equal(t, l.out.Lines(), []string{"t0 = x", "t1 = -t0"})
}

func TestCacheReuseOnRepeatedRead(t *testing.T) {
	l := testLowerer()
	first := l.lowerExpr(intVar("x"))
	second := l.lowerExpr(intVar("x"))
	be.Equal(t, first, "t0")
	be.Equal(t, second, "t0")
	// Only one load is emitted.
	be.Equal(t, l.out.Lines(), []string{"t0 = x"})
}

func TestCachedReadStillAdvancesTempCounter(t *testing.T) {
	l := testLowerer()
	l.lowerExpr(intVar("x")) // t0 = x
	l.lowerExpr(intVar("x")) // reuses t0, burns t1
	result := l.lowerExpr(intConst("5"))
	be.Equal(t, result, "t2")
	be.Equal(t, l.out.Lines(), []string{"t0 = x", "t2 = 5"})
}

func TestCacheInvalidationOnWrite(t *testing.T) {
	l := testLowerer()
	l.lowerExpr(assign("x", intConst("1")))
	be.Equal(t, l.cache["x"], "t0")
	l.lowerExpr(assign("x", intConst("2")))
	be.Equal(t, l.cache["x"], "t1")
	be.Equal(t, l.out.Lines(), []string{"t0 = 1", "x = t0", "t1 = 2", "x = t1"})
}

func TestAssignmentReturnsRightHandTemp(t *testing.T) {
	l := testLowerer()
	result := l.lowerExpr(assign("x", intConst("9")))
	be.Equal(t, result, "t0")
}

func TestIndexedReadsNeverCached(t *testing.T) {
	indexed := func() *ast.VarRef {
		return &ast.VarRef{Name: "a", Index: intVar("i"), Typ: "int"}
	}
	l := testLowerer()
	first := l.lowerExpr(indexed())
	second := l.lowerExpr(indexed())
	be.Equal(t, first, "t1")
	be.Equal(t, second, "t3") // fresh element temp; t2 burned by the cached index read
	be.Equal(t, l.out.Lines(), []string{"t0 = i", "t1 = a[t0]", "t3 = a[t0]"})
	_, cached := l.cache["a"]
	be.Equal(t, cached, false)
}

func TestIndexedStore(t *testing.T) {
	l := testLowerer()
	target := &ast.VarRef{Name: "a", Index: intVar("i"), Typ: "int"}
	l.lowerExpr(&ast.AssignExpr{Target: target, Value: intConst("5"), Typ: "int"})
	be.Equal(t, l.out.Lines(), []string{"t0 = 5", "t1 = i", "a[t1] = t0"})
	_, cached := l.cache["a"]
	be.Equal(t, cached, false)
}

// ---------------------------------------------------------------------------
// Function calls
// ---------------------------------------------------------------------------

func TestCallArgumentBypassesCache(t *testing.T) {
	l := testLowerer()
	l.cache["x"] = "t3"
	l.tempCount = 4

	call := &ast.CallExpr{Name: "f", Args: []ast.Expr{intVar("x")}, Typ: "int"}
	result := l.lowerExpr(call)

	be.Equal(t, result, "t5")
	be.Equal(t, l.out.Lines(), []string{"t4 = x", "param t4", "t5 = call f, 1"})
}

func TestCallIndexedArgument(t *testing.T) {
	l := testLowerer()
	call := &ast.CallExpr{
		Name: "f",
		Args: []ast.Expr{&ast.VarRef{Name: "a", Index: intConst("0"), Typ: "int"}},
		Typ:  "void",
	}
	result := l.lowerExpr(call)
	be.Equal(t, result, "")
	be.Equal(t, l.out.Lines(), []string{"t0 = 0", "t1 = a[t0]", "param t1", "call f, 1"})
}

func TestVoidCallEmitsNoResultTemp(t *testing.T) {
	listing := compile(t, "void put(int x); int get(); void f() { put(get()); }")
	be.Equal(t, listing.Lines(), []string{
		"// Function: void put(int x)",
		"",
		"// Function: int get()",
		"",
		"// Function: void f()",
		"t0 = call get, 0",
		"param t0",
		"call put, 1",
		"",
	})
}

func TestCallParamsInterleavedPerArgument(t *testing.T) {
	l := testLowerer()
	call := &ast.CallExpr{
		Name: "max",
		Args: []ast.Expr{intVar("a"), intVar("b")},
		Typ:  "int",
	}
	l.lowerExpr(call)
	be.Equal(t, l.out.Lines(), []string{
		"t0 = a", "param t0", "t1 = b", "param t1", "t2 = call max, 2",
	})
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func TestIfWithCachedCondition(t *testing.T) {
	// int a; a = 1; if (a) { a = 2; }
	l := testLowerer()
	stmts := []ast.Stmt{
		&ast.DeclStmt{DeclType: "int", Vars: []ast.Declarator{{Name: "a"}}},
		&ast.ExprStmt{Expr: assign("a", intConst("1"))},
		&ast.IfStmt{
			Cond: intVar("a"),
			Then: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ExprStmt{Expr: assign("a", intConst("2"))},
			}},
		},
	}
	for _, s := range stmts {
		l.lowerStmt(s)
	}
	be.Equal(t, l.out.Lines(), []string{
		"// Declaration: int a",
		"t0 = 1",
		"a = t0",
		"if t0 goto L0", // condition reuses t0; t1 is burned
		"goto L1",
		"L0:",
		"t2 = 2",
		"a = t2",
		"goto L2",
		"L1:",
		"L2:",
	})
}

func TestIfWithoutElse(t *testing.T) {
	l := testLowerer()
	l.lowerStmt(&ast.IfStmt{Cond: intConst("1"), Then: &ast.BlockStmt{}})
	be.Equal(t, l.out.Lines(), []string{
		"t0 = 1",
		"if t0 goto L0",
		"goto L1",
		"L0:",
		"goto L2",
		"L1:",
		"L2:",
	})
}

func TestWhileConditionReusesCachedRead(t *testing.T) {
	// Unlike for-loops, while conditions read through the cache, so a scalar
	// loaded before the loop is reused inside the condition.
	listing := compile(t, "void f() { int i; i = 0; while (i < 3) { i = i + 1; } }")
	be.Equal(t, listing.Lines(), []string{
		"// Function: void f()",
		"// Declaration: int i",
		"t0 = 0",
		"i = t0",
		"L0:",
		"t2 = 3",
		"t3 = t0 < t2",
		"if t3 goto L1",
		"goto L2",
		"L1:",
		"t5 = 1",
		"t6 = t0 + t5",
		"i = t6",
		"goto L0",
		"L2:",
		"",
	})
}

func TestForConditionForcesFreshLoad(t *testing.T) {
	listing := compile(t, "void f() { int i; for (i = 0; i < 2; i = i + 1) { } }")
	be.Equal(t, listing.Lines(), []string{
		"// Function: void f()",
		"// Declaration: int i",
		"t0 = 0",
		"i = t0",
		"L0:",
		"t1 = i", // fresh load, cache entry t0 ignored
		"t2 = 2",
		"t3 = t1 < t2",
		"if t3 goto L1",
		"goto L2",
		"L1:",
		"t5 = 1",
		"t6 = t1 + t5", // update reuses the condition's load, not t0
		"i = t6",
		"goto L0",
		"L2:",
		"",
	})
}

func TestForBodySeesConditionBindings(t *testing.T) {
	// After the condition is lowered, the cache is rebuilt from the
	// last-access record, so the body reuses the condition's loads.
	l := testLowerer()
	l.lowerExpr(assign("i", intConst("0"))) // t0 = 0; i = t0
	loop := &ast.ForStmt{
		Cond: ast.ExprClause(&ast.BinaryExpr{
			Op: "<", Left: intVar("i"), Right: intConst("2"), Typ: "int",
		}),
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: assign("x", intVar("i"))},
		}},
	}
	l.lowerStmt(loop)
	be.Equal(t, l.out.Lines(), []string{
		"t0 = 0",
		"i = t0",
		"L0:",
		"t1 = i",
		"t2 = 2",
		"t3 = t1 < t2",
		"if t3 goto L1",
		"goto L2",
		"L1:",
		"x = t1", // the condition's load of i, not a reload and not t0
		"goto L0",
		"L2:",
	})
	be.Equal(t, l.cache["i"], "t1")
}

func TestForWithoutConditionIsAlwaysTrue(t *testing.T) {
	l := testLowerer()
	l.cache["x"] = "t9" // untouched: no condition means no cache rebuild
	l.lowerStmt(&ast.ForStmt{Body: &ast.BlockStmt{}})
	be.Equal(t, l.out.Lines(), []string{
		"L0:",
		"if 1 goto L1",
		"goto L2",
		"L1:",
		"goto L0",
		"L2:",
	})
	be.Equal(t, l.cache["x"], "t9")
}

func TestForStatementConditionLowersSilently(t *testing.T) {
	// A statement-form condition produces no value: the branch falls back to
	// the constant-true operand and the cache is rebuilt from an empty
	// last-access record.
	l := testLowerer()
	l.cache["x"] = "t9"
	l.lowerStmt(&ast.ForStmt{
		Cond: ast.StmtClause(&ast.ExprStmt{}),
		Body: &ast.BlockStmt{},
	})
	be.Equal(t, l.out.Lines(), []string{
		"L0:",
		"if 1 goto L1",
		"goto L2",
		"L1:",
		"goto L0",
		"L2:",
	})
	be.Equal(t, len(l.cache), 0)
}

// ---------------------------------------------------------------------------
// Functions and programs
// ---------------------------------------------------------------------------

func TestVoidFunctionBareReturn(t *testing.T) {
	listing := compile(t, "void g() { return; }")
	be.Equal(t, listing.Lines(), []string{
		"// Function: void g()",
		"return",
		"",
	})
}

func TestReturnWithValue(t *testing.T) {
	listing := compile(t, "int one() { return 1; }")
	be.Equal(t, listing.Lines(), []string{
		"// Function: int one()",
		"t0 = 1",
		"return t0",
		"",
	})
}

func TestFunctionBoundaryResetsCache(t *testing.T) {
	listing := compile(t, "int x; void f() { x = 1; } void g() { x; }")
	be.Equal(t, listing.Lines(), []string{
		"// Declaration: int x",
		"// Function: void f()",
		"t0 = 1",
		"x = t0",
		"",
		"// Function: void g()",
		"t1 = x", // fresh load: f's cache entry does not survive
		"",
	})
}

func TestDeclarationComments(t *testing.T) {
	l := testLowerer()
	l.lowerStmt(&ast.DeclStmt{
		DeclType: "float",
		Vars:     []ast.Declarator{{Name: "x"}, {Name: "a", ArrayLen: 8}},
	})
	be.Equal(t, l.out.Lines(), []string{
		"// Declaration: float x",
		"// Declaration: float a[8]",
	})
}

func TestTempAndLabelCountersSpanFunctions(t *testing.T) {
	listing := compile(t, `
int f() { if (1) { } return 2; }
int g() { if (3) { } return 4; }
`)
	be.Equal(t, listing.Lines(), []string{
		"// Function: int f()",
		"t0 = 1",
		"if t0 goto L0",
		"goto L1",
		"L0:",
		"goto L2",
		"L1:",
		"L2:",
		"t1 = 2",
		"return t1",
		"",
		"// Function: int g()",
		"t2 = 3",
		"if t2 goto L3", // labels keep counting across the boundary
		"goto L4",
		"L3:",
		"goto L5",
		"L4:",
		"L5:",
		"t3 = 4",
		"return t3",
		"",
	})
}

// ---------------------------------------------------------------------------
// Whole-program properties
// ---------------------------------------------------------------------------

const propertySource = `
int x, a[4];
int add(int p, int q) { return p + q; }
void main() {
	int i;
	x = 0;
	for (i = 0; i < 4; i = i + 1) {
		if (a[i] > x) { x = a[i]; } else { ; }
	}
	while (x > 0) { x = x - 1; }
	add(x, 1);
}
`

func TestDeterminism(t *testing.T) {
	first := compile(t, propertySource)
	second := compile(t, propertySource)
	be.Equal(t, first.String(), second.String())
}

func TestLabelsUniqueAndMonotonic(t *testing.T) {
	listing := compile(t, propertySource)

	defined := map[string]bool{}
	last := -1
	for _, instr := range listing.Instrs {
		if instr.Op != OpLabel {
			continue
		}
		if defined[instr.Label] {
			t.Fatalf("label %s defined twice", instr.Label)
		}
		defined[instr.Label] = true

		var id int
		if _, err := fmt.Sscanf(instr.Label, "L%d", &id); err != nil {
			t.Fatalf("unparseable label %q", instr.Label)
		}
		if id <= last {
			t.Fatalf("label ids not strictly increasing: L%d after L%d", id, last)
		}
		last = id
	}

	for _, instr := range listing.Instrs {
		if instr.Op == OpGoto || instr.Op == OpIfGoto {
			if !defined[instr.Label] {
				t.Fatalf("branch to undefined label %s", instr.Label)
			}
		}
	}
}
