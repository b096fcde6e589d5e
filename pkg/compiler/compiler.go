// Package compiler runs the full pipeline from source text to rendered
// output: tokenize, parse, transform, expand and generate.
package compiler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/codegen"
	"github.com/open-cli-collective/brack/pkg/cst"
	"github.com/open-cli-collective/brack/pkg/expander"
	"github.com/open-cli-collective/brack/pkg/parser"
	"github.com/open-cli-collective/brack/pkg/token"
	"github.com/open-cli-collective/brack/pkg/tokenizer"
	"github.com/open-cli-collective/brack/pkg/transformer"
)

// Host is the plugin host the back end dispatches to.
type Host interface {
	expander.MacroCaller
	codegen.Host
}

// Analysis holds the front-end products of one file.
type Analysis struct {
	Path        string
	Tokens      []token.Token
	CST         *cst.Node
	AST         *ast.Node
	Diagnostics []ast.Diagnostic
}

// Result is a successful compilation.
type Result struct {
	*Analysis
	Expanded *ast.Node
	Output   string
}

// DiagnosticsError reports that the front end found problems, so nothing
// was generated.
type DiagnosticsError struct {
	Path        string
	Diagnostics []ast.Diagnostic
}

func (e *DiagnosticsError) Error() string {
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("%s:%s", e.Path, e.Diagnostics[0].Error())
	}
	msgs := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		msgs = append(msgs, e.Path+":"+d.Error())
	}
	return fmt.Sprintf("%d diagnostics:\n%s", len(e.Diagnostics), strings.Join(msgs, "\n"))
}

// Analyze runs the front end. Diagnostics do not make it fail; only
// malformed input encoding does.
func Analyze(path string, src []byte) (*Analysis, error) {
	tokens, err := tokenizer.Tokenize(path, string(src))
	if err != nil {
		return nil, err
	}
	doc, _ := parser.Parse(tokens)
	root, diags := transformer.Transform(doc)
	return &Analysis{
		Path:        path,
		Tokens:      tokens,
		CST:         doc,
		AST:         root,
		Diagnostics: diags,
	}, nil
}

// AnalyzeFile reads path and runs the front end on it.
func AnalyzeFile(path string) (*Analysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return Analyze(path, src)
}

// Compile runs every stage. Any diagnostic is fatal. ctx is checked
// between stages and handed to plugin calls.
func Compile(ctx context.Context, path string, src []byte, host Host) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := Analyze(path, src)
	if err != nil {
		return nil, err
	}
	if len(a.Diagnostics) > 0 {
		return nil, &DiagnosticsError{Path: path, Diagnostics: a.Diagnostics}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expanded, err := expander.Expand(ctx, a.AST, host)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := codegen.Generate(ctx, expanded, host)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}

	return &Result{Analysis: a, Expanded: expanded, Output: out}, nil
}

// CompileFile reads path and compiles it.
func CompileFile(ctx context.Context, path string, host Host) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return Compile(ctx, path, src, host)
}
