package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"minicc/internal/ast"

	"github.com/nalgeon/be"
)

func onesProgram() *ast.Program {
	return &ast.Program{Units: []ast.Node{
		&ast.FuncDecl{
			ReturnType: "int",
			Name:       "one",
			Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.Const{Value: "1", Typ: "int"}},
			}},
		},
	}}
}

func TestGenerateReturnsListing(t *testing.T) {
	result, err := Generate(onesProgram(), nil)
	be.Err(t, err, nil)
	be.Equal(t, result.OutputFile, "")
	be.Equal(t, result.TAC, "// Function: int one()\nt0 = 1\nreturn t0\n\n")
	be.Equal(t, len(result.Listing.Instrs), 4)
}

func TestGenerateWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "one.tac")
	result, err := Generate(onesProgram(), &Options{OutputPath: path})
	be.Err(t, err, nil)
	be.Equal(t, result.OutputFile, path)

	data, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, string(data), result.TAC)
}
