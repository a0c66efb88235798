// Package tactest extracts golden code-generation test cases from Markdown
// documents. A case is a heading of the form "Test: <name>" followed by a
// fenced `c` block (the source program) and a fenced `tac` block (the exact
// expected three-address output).
package tactest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Case is one complete golden test case extracted from Markdown.
type Case struct {
	Name   string // the heading text after "Test: "
	Source string // the C-subset input program
	Want   string // the expected TAC text, without trailing newline
}

// ExtractCases parses a Markdown document and returns all golden cases in
// document order. A case missing either fence is an error, as is a c/tac
// fence outside any test heading.
func ExtractCases(markdown string) ([]Case, error) {
	md := goldmark.New()
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case
	hasSource, hasWant := false, false

	finish := func() error {
		if current == nil {
			return nil
		}
		if !hasSource {
			return fmt.Errorf("test %q has no c fence", current.Name)
		}
		if !hasWant {
			return fmt.Errorf("test %q has no tac fence", current.Name)
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractText(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &Case{Name: strings.TrimPrefix(headingText, "Test: ")}
			hasSource, hasWant = false, false

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			if language != "c" && language != "tac" {
				return ast.WalkContinue, nil
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("%s fence found outside of a test case", language)
			}
			content := strings.TrimRight(fenceContent(n, source), "\n")
			if language == "c" {
				if hasSource {
					return ast.WalkStop, fmt.Errorf("test %q has multiple c fences", current.Name)
				}
				current.Source = content
				hasSource = true
			} else {
				if hasWant {
					return ast.WalkStop, fmt.Errorf("test %q has multiple tac fences", current.Name)
				}
				current.Want = content
				hasWant = true
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

// extractText collects the plain text content of a markdown node.
func extractText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// fenceContent joins the raw lines of a fenced code block.
func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}
