// Package expander replaces macro forms in an AST with the trees their
// plugins return.
package expander

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/token"
)

// MacroCaller is the part of the plugin host the expander needs.
type MacroCaller interface {
	CallMacro(ctx context.Context, module, command string, root *ast.Node, id string) (*ast.Node, error)
}

// Error reports a failed macro call at the span of its angle form.
// Context is module.command.
type Error struct {
	Span    token.Span
	Context string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s: %v", e.Span.Start.Line+1, e.Span.Start.Character+1, e.Context, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Expand returns a copy of root with every Angle node replaced by the
// result of its macro. The walk is post-order: forms nested in a macro's
// arguments are replaced before the macro runs, and each macro receives
// the document as rewritten so far plus the ID of the invoking node.
// Returned trees are not expanded again. root is not modified.
func Expand(ctx context.Context, root *ast.Node, host MacroCaller) (*ast.Node, error) {
	if root == nil {
		return nil, nil
	}
	doc := root.Clone()
	return expand(ctx, doc, doc, host)
}

func expand(ctx context.Context, root, n *ast.Node, host MacroCaller) (*ast.Node, error) {
	for i, c := range n.Children {
		out, err := expand(ctx, root, c, host)
		if err != nil {
			return nil, err
		}
		n.Children[i] = out
	}
	if n.Kind != ast.Angle {
		return n, nil
	}

	module, ident, ok := n.Head()
	if !ok {
		return nil, &Error{Span: n.Span, Context: "<>", Err: errors.New("macro form has no valid head")}
	}
	out, err := host.CallMacro(ctx, module, ident, root, n.ID)
	if err != nil {
		return nil, &Error{Span: n.Span, Context: module + "." + ident, Err: err}
	}
	if out == nil {
		return nil, &Error{Span: n.Span, Context: module + "." + ident, Err: errors.New("macro returned no tree")}
	}
	return out, nil
}
