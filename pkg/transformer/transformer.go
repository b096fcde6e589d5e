// Package transformer lowers the concrete syntax tree into the AST.
//
// Lowering is total. Every malformed construct becomes an Invalid leaf and
// at least one diagnostic; callers decide whether diagnostics are fatal.
package transformer

import (
	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/cst"
	"github.com/open-cli-collective/brack/pkg/token"
)

// Transform lowers doc and returns the AST with the diagnostics collected
// along the way, in source order of discovery.
func Transform(doc *cst.Node) (*ast.Node, []ast.Diagnostic) {
	t := &transformer{}
	root := t.document(doc)
	return root, t.diags
}

type transformer struct {
	diags []ast.Diagnostic
}

func (t *transformer) report(kind ast.DiagnosticKind, span token.Span) *ast.Node {
	t.diags = append(t.diags, ast.NewDiagnostic(kind, span))
	return ast.NewInvalid(span)
}

// form describes one bracket family.
type form struct {
	kind      ast.Kind
	closer    cst.Kind
	notClosed ast.DiagnosticKind
}

var forms = map[cst.Kind]form{
	cst.Angle:  {ast.Angle, cst.AngleBracketClose, ast.AngleNotClosed},
	cst.Curly:  {ast.Curly, cst.CurlyBracketClose, ast.CurlyNotClosed},
	cst.Square: {ast.Square, cst.SquareBracketClose, ast.SquareNotClosed},
}

var strayClosers = map[cst.Kind]ast.DiagnosticKind{
	cst.AngleBracketClose:  ast.AngleNotOpened,
	cst.CurlyBracketClose:  ast.CurlyNotOpened,
	cst.SquareBracketClose: ast.SquareNotOpened,
}

func (t *transformer) document(n *cst.Node) *ast.Node {
	out := ast.New(ast.Document, n.Span)
	for _, c := range n.Children {
		switch c.Kind {
		case cst.Stmt:
			keep(out, t.stmt(c))
		case cst.NewLine, cst.EOF:
			keep(out, ast.NewIgnored(c.Span))
		default:
			keep(out, t.element(c))
		}
	}
	return out
}

func (t *transformer) stmt(n *cst.Node) *ast.Node {
	out := ast.New(ast.Stmt, n.Span)
	for _, c := range n.Children {
		switch {
		case c.Kind == cst.Expr:
			keep(out, t.expr(c.Children, c.Span))
		case c.Kind == cst.NewLine:
			keep(out, ast.NewIgnored(c.Span))
		default:
			keep(out, t.element(c))
		}
	}
	return out
}

// expr lowers a run of CST elements into one Expr, merging adjacent text.
func (t *transformer) expr(elems []*cst.Node, span token.Span) *ast.Node {
	out := ast.New(ast.Expr, span)
	for _, e := range elems {
		keep(out, t.element(e))
	}
	out.Children = mergeText(out.Children)
	return out
}

// element lowers a single CST node found inside an expression.
func (t *transformer) element(n *cst.Node) *ast.Node {
	switch n.Kind {
	case cst.Text:
		return ast.NewLeaf(ast.Text, n.Value, n.Span)
	case cst.Module:
		return ast.NewLeaf(ast.Module, n.Value, n.Span)
	case cst.Ident:
		return ast.NewLeaf(ast.Ident, n.Value, n.Span)
	case cst.Whitespace, cst.NewLine:
		// Only reached for interior positions; edges are trimmed earlier.
		return ast.NewLeaf(ast.Text, n.Value, n.Span)
	case cst.Dot:
		return t.report(ast.UnexpectedDot, n.Span)
	case cst.Comma:
		return t.report(ast.UnexpectedComma, n.Span)
	case cst.BackSlash:
		return t.backslash(n)
	case cst.Angle, cst.Curly, cst.Square:
		return t.bracket(n)
	case cst.Expr:
		return t.expr(n.Children, n.Span)
	case cst.AngleBracketClose, cst.CurlyBracketClose, cst.SquareBracketClose:
		return t.report(strayClosers[n.Kind], n.Span)
	}
	return ast.NewIgnored(n.Span)
}

func (t *transformer) backslash(n *cst.Node) *ast.Node {
	if len(n.Children) == 1 {
		return ast.NewLeaf(ast.Text, n.Children[0].Value, n.Span)
	}
	return t.report(ast.InvalidBackslash, n.Span)
}

// bracket validates the shape [Open, Module, Dot, Ident, args..., Close] and
// produces [Module, Ident, Expr*] with Invalid leaves standing in for any
// part that failed.
func (t *transformer) bracket(n *cst.Node) *ast.Node {
	f := forms[n.Kind]
	out := ast.New(f.kind, n.Span)

	open := n.Open()
	body := n.Children[1:]
	closeLeaf := n.Close()
	if closeLeaf != nil {
		body = body[:len(body)-1]
	}
	elems := flatten(body)

	var tail *ast.Node
	switch {
	case closeLeaf == nil:
		tail = t.report(f.notClosed, n.Span)
	case closeLeaf.Kind != f.closer:
		tail = t.report(ast.MismatchedBracket, closeLeaf.Span)
	}

	rest := t.head(out, open, elems)
	out.Children = append(out.Children, t.arguments(rest)...)

	if tail != nil {
		out.Children = append(out.Children, tail)
	}
	return out
}

var headShape = []struct {
	kind cst.Kind
	diag ast.DiagnosticKind
}{
	{cst.Module, ast.ModuleNotFound},
	{cst.Dot, ast.DotNotFound},
	{cst.Ident, ast.IdentifierNotFound},
}

// head appends the Module and Ident leaves (or an Invalid) to out and
// returns the elements after the part of the head that matched.
func (t *transformer) head(out *ast.Node, open *cst.Node, elems []*cst.Node) []*cst.Node {
	for i, want := range headShape {
		if i < len(elems) && elems[i].Kind == want.kind {
			continue
		}
		span := open.Span
		switch {
		case i < len(elems):
			span = elems[i].Span
		case i > 0:
			span = elems[i-1].Span
		}
		out.Children = append(out.Children, t.report(want.diag, span))
		return elems[i:]
	}

	module, ident := elems[0], elems[2]
	out.Children = append(out.Children,
		ast.NewLeaf(ast.Module, module.Value, module.Span),
		ast.NewLeaf(ast.Ident, ident.Value, ident.Span),
	)
	return elems[len(headShape):]
}

// arguments splits rest on commas into one Expr per segment. A blank region
// means no arguments; an empty segment next to a comma is UnexpectedComma.
func (t *transformer) arguments(rest []*cst.Node) []*ast.Node {
	var segments [][]*cst.Node
	var commas []*cst.Node

	current := []*cst.Node{}
	for _, e := range rest {
		if e.Kind == cst.Comma {
			segments = append(segments, current)
			commas = append(commas, e)
			current = []*cst.Node{}
			continue
		}
		current = append(current, e)
	}
	segments = append(segments, current)

	if len(commas) == 0 {
		seg := trim(segments[0])
		if len(seg) == 0 {
			return nil
		}
		return []*ast.Node{t.expr(seg, spanOf(seg))}
	}

	// Each comma is reported at most once, even when both of its
	// neighbouring segments are empty.
	out := make([]*ast.Node, 0, len(segments))
	last := -1
	for i, seg := range segments {
		seg = trim(seg)
		if len(seg) == 0 {
			c := min(i, len(commas)-1)
			if c != last {
				out = append(out, t.report(ast.UnexpectedComma, commas[c].Span))
				last = c
			}
			continue
		}
		out = append(out, t.expr(seg, spanOf(seg)))
	}
	return out
}

// flatten inlines nested Expr nodes so the head and commas sit at one level.
func flatten(nodes []*cst.Node) []*cst.Node {
	var out []*cst.Node
	for _, n := range nodes {
		if n.Kind == cst.Expr {
			out = append(out, flatten(n.Children)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func isBlank(n *cst.Node) bool {
	return n.Kind == cst.Whitespace || n.Kind == cst.NewLine
}

func trim(seg []*cst.Node) []*cst.Node {
	for len(seg) > 0 && isBlank(seg[0]) {
		seg = seg[1:]
	}
	for len(seg) > 0 && isBlank(seg[len(seg)-1]) {
		seg = seg[:len(seg)-1]
	}
	return seg
}

func spanOf(nodes []*cst.Node) token.Span {
	spans := make([]token.Span, 0, len(nodes))
	for _, n := range nodes {
		spans = append(spans, n.Span)
	}
	return token.MergeAll(spans...)
}

// keep appends child to parent unless it is an Ignored marker.
func keep(parent, child *ast.Node) {
	if child == nil || child.Kind == ast.Ignored {
		return
	}
	parent.Children = append(parent.Children, child)
}

func mergeText(nodes []*ast.Node) []*ast.Node {
	out := make([]*ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if last := len(out) - 1; last >= 0 && n.Kind == ast.Text && out[last].Kind == ast.Text {
			prev := out[last]
			out[last] = ast.NewLeaf(ast.Text, prev.Value+n.Value, prev.Span.Merge(n.Span))
			continue
		}
		out = append(out, n)
	}
	return out
}
