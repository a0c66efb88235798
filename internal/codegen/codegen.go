package codegen

import (
	"fmt"
	"minicc/internal/ast"
	"os"
	"path/filepath"
)

// ---------------------------------------------------------------------------
// Options controls the behaviour of the code-generation pipeline.
// ---------------------------------------------------------------------------

// Options configures the codegen pipeline.
type Options struct {
	// OutputPath is where the TAC text is written. Empty means the listing
	// is only returned, not written anywhere.
	OutputPath string
}

// DefaultOptions returns sensible defaults (no output file).
func DefaultOptions() *Options {
	return &Options{}
}

// ---------------------------------------------------------------------------
// Result is returned by Generate.
// ---------------------------------------------------------------------------

type Result struct {
	Listing    *Listing // the lowered instruction list
	TAC        string   // the rendered text
	OutputFile string   // path written (empty if no OutputPath was set)
}

// ---------------------------------------------------------------------------
// Generate — the public entry point
//
// Pipeline: AST → TAC listing (lower) → text → optional output file
// ---------------------------------------------------------------------------

// Generate lowers a type-annotated program to TAC and optionally writes the
// text to opts.OutputPath. The AST is trusted: name and type resolution must
// already have happened upstream.
func Generate(prog *ast.Program, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	listing := Lower(prog)
	result := &Result{
		Listing: listing,
		TAC:     listing.String(),
	}

	if opts.OutputPath == "" {
		return result, nil
	}

	dir := filepath.Dir(opts.OutputPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(opts.OutputPath, []byte(result.TAC), 0644); err != nil {
		return nil, fmt.Errorf("cannot write TAC file: %w", err)
	}
	result.OutputFile = opts.OutputPath

	return result, nil
}
