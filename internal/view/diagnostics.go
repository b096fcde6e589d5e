package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/codegen"
	"github.com/open-cli-collective/brack/pkg/expander"
	"github.com/open-cli-collective/brack/pkg/token"
)

// diagnosticJSON is the json output shape of one diagnostic.
type diagnosticJSON struct {
	Path    string             `json:"path"`
	Kind    ast.DiagnosticKind `json:"kind"`
	Message string             `json:"message"`
	Span    token.Span         `json:"span"`
}

// FileDiagnostics groups the diagnostics of one source file.
type FileDiagnostics struct {
	Path        string
	Source      []byte
	Diagnostics []ast.Diagnostic
}

// RenderDiagnostics writes the diagnostics of every file. The table format
// adds a caret snippet under each one; json writes a single array.
func (r *Renderer) RenderDiagnostics(files ...FileDiagnostics) error {
	switch r.format {
	case FormatJSON:
		out := []diagnosticJSON{}
		for _, f := range files {
			for _, d := range f.Diagnostics {
				out = append(out, diagnosticJSON{Path: f.Path, Kind: d.Kind, Message: d.Message, Span: d.Span})
			}
		}
		return r.RenderJSON(out)
	case FormatPlain:
		for _, f := range files {
			for _, d := range f.Diagnostics {
				fmt.Fprintf(r.writer, "%s:%s\n", f.Path, d.Error())
			}
		}
	default:
		for _, f := range files {
			for _, d := range f.Diagnostics {
				r.renderSpanned(f.Path, string(f.Source), d.Span, d.Kind.String(), d.Message)
			}
		}
	}
	return nil
}

// RenderBuildError writes err, with a caret snippet when it carries a
// source span.
func (r *Renderer) RenderBuildError(path string, src []byte, err error) {
	var genErr *codegen.Error
	var expErr *expander.Error
	switch {
	case r.format != FormatTable:
		fmt.Fprintln(r.writer, err.Error())
	case errors.As(err, &genErr):
		r.renderSpanned(path, string(src), genErr.Span, genErr.Context, genErr.Err.Error())
	case errors.As(err, &expErr):
		r.renderSpanned(path, string(src), expErr.Span, expErr.Context, expErr.Err.Error())
	default:
		r.Error(err.Error())
	}
}

func (r *Renderer) renderSpanned(path, src string, span token.Span, label, msg string) {
	red := color.New(color.FgRed, color.Bold)
	bold := color.New(color.Bold)

	_, _ = bold.Fprintf(r.writer, "%s:%d:%d: ", path, span.Start.Line+1, span.Start.Character+1)
	if label != "" {
		_, _ = red.Fprintf(r.writer, "%s: ", label)
	}
	fmt.Fprintln(r.writer, msg)
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, Snippet(src, span))
}

// Snippet renders the line of src holding span.Start, numbered, with one
// line of context either side and a caret line under the span. Columns are
// counted in grapheme clusters and padded by display width.
func Snippet(src string, span token.Span) string {
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	line := span.Start.Line
	if line < 0 {
		line = 0
	}
	if line >= len(lines) {
		line = len(lines) - 1
	}

	start := span.Start.Character
	end := start + 1
	if span.End.Line == span.Start.Line && span.End.Character > start {
		end = span.End.Character
	}
	pad, width := columns(lines[line], start, end)

	var b strings.Builder
	if line > 0 {
		fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	fmt.Fprintf(&b, "     | %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", width-1))
	if line+1 < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+2, lines[line+1])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// columns returns the display width of the first start graphemes of text
// and of the graphemes in [start, end), the latter at least 1.
func columns(text string, start, end int) (pad, width int) {
	g := uniseg.NewGraphemes(text)
	for i := 0; g.Next(); i++ {
		switch {
		case i < start:
			pad += g.Width()
		case i < end:
			width += g.Width()
		}
	}
	if width < 1 {
		width = 1
	}
	return pad, width
}
