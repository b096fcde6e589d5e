package expander

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/parser"
	"github.com/open-cli-collective/brack/pkg/tokenizer"
	"github.com/open-cli-collective/brack/pkg/transformer"
)

type call struct {
	module, command, id string
}

// fakeHost records macro calls and answers from fn.
type fakeHost struct {
	calls []call
	fn    func(root *ast.Node, id string) (*ast.Node, error)
}

func (f *fakeHost) CallMacro(_ context.Context, module, command string, root *ast.Node, id string) (*ast.Node, error) {
	f.calls = append(f.calls, call{module, command, id})
	return f.fn(root, id)
}

func lower(t *testing.T, src string) *ast.Node {
	t.Helper()
	tokens, err := tokenizer.Tokenize("test.[]", src)
	require.NoError(t, err)
	doc, _ := parser.Parse(tokens)
	root, diags := transformer.Transform(doc)
	require.Empty(t, diags)
	return root
}

func angles(root *ast.Node) []*ast.Node {
	var out []*ast.Node
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.Angle {
			out = append(out, n)
		}
		return true
	})
	return out
}

func TestExpand_IdentityWithoutMacros(t *testing.T) {
	inputs := []string{
		"Hello, World!\n",
		"Hello, [std.* World!]",
		"{std.* Heading}\nHello, World!",
		"[a.b [c.d x], y]\n\nnext",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			root := lower(t, input)
			host := &fakeHost{fn: func(*ast.Node, string) (*ast.Node, error) {
				return nil, errors.New("unexpected call")
			}}

			got, err := Expand(context.Background(), root, host)
			require.NoError(t, err)
			assert.True(t, ast.Equal(root, got))
			assert.Empty(t, host.calls)
		})
	}
}

func TestExpand_ReplacesAngle(t *testing.T) {
	root := lower(t, "before <std.up shout> after")
	invoking := angles(root)[0]

	host := &fakeHost{fn: func(doc *ast.Node, id string) (*ast.Node, error) {
		n := ast.Find(doc, id)
		require.NotNil(t, n)
		return ast.NewLeaf(ast.Text, "SHOUT", n.Span), nil
	}}

	got, err := Expand(context.Background(), root, host)
	require.NoError(t, err)
	require.Equal(t, []call{{"std", "up", invoking.ID}}, host.calls)

	assert.Empty(t, angles(got))
	expr := got.Children[0].Children[0]
	require.Len(t, expr.Children, 3)
	assert.Equal(t, "SHOUT", expr.Children[1].Value)
	assert.Equal(t, invoking.Span, expr.Children[1].Span)

	// The input tree is untouched.
	assert.Len(t, angles(root), 1)
}

func TestExpand_NotRecursive(t *testing.T) {
	root := lower(t, "<std.twice x>")

	// The macro returns another angle form, which must survive.
	host := &fakeHost{fn: func(doc *ast.Node, id string) (*ast.Node, error) {
		return ast.Find(doc, id).Clone(), nil
	}}

	got, err := Expand(context.Background(), root, host)
	require.NoError(t, err)
	assert.Len(t, host.calls, 1)
	assert.Len(t, angles(got), 1)
}

func TestExpand_InnerBeforeOuter(t *testing.T) {
	root := lower(t, "<std.outer <std.inner x>>")
	all := angles(root)
	require.Len(t, all, 2)
	outer, inner := all[0], all[1]

	host := &fakeHost{fn: func(doc *ast.Node, id string) (*ast.Node, error) {
		n := ast.Find(doc, id)
		require.NotNil(t, n)
		if id == inner.ID {
			return ast.NewLeaf(ast.Text, "INNER", n.Span), nil
		}
		// The outer macro sees its argument already expanded and hands
		// it back as its result.
		assert.Len(t, angles(n), 1)
		require.Len(t, n.Children, 3)
		return n.Children[2], nil
	}}

	got, err := Expand(context.Background(), root, host)
	require.NoError(t, err)
	assert.Equal(t, []call{{"std", "inner", inner.ID}, {"std", "outer", outer.ID}}, host.calls)
	assert.Empty(t, angles(got))

	var texts []string
	ast.Walk(got, func(n *ast.Node) bool {
		if n.Kind == ast.Text {
			texts = append(texts, n.Value)
		}
		return true
	})
	assert.Equal(t, []string{"INNER"}, texts)
}

func TestExpand_SiblingsInOrder(t *testing.T) {
	root := lower(t, "<a.one x> <b.two y>")

	host := &fakeHost{fn: func(doc *ast.Node, id string) (*ast.Node, error) {
		return ast.NewLeaf(ast.Text, id, ast.Find(doc, id).Span), nil
	}}

	_, err := Expand(context.Background(), root, host)
	require.NoError(t, err)
	require.Len(t, host.calls, 2)
	assert.Equal(t, "one", host.calls[0].command)
	assert.Equal(t, "two", host.calls[1].command)
}

func TestExpand_Error(t *testing.T) {
	root := lower(t, "x <std.bad y>")
	boom := errors.New("trap")
	host := &fakeHost{fn: func(*ast.Node, string) (*ast.Node, error) { return nil, boom }}

	_, err := Expand(context.Background(), root, host)
	require.ErrorIs(t, err, boom)

	var expErr *Error
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, "std.bad", expErr.Context)
	assert.Equal(t, 2, expErr.Span.Start.Character)
	assert.Equal(t, "1:3: std.bad: trap", err.Error())
}

func TestExpand_EmptyDocument(t *testing.T) {
	host := &fakeHost{}
	got, err := Expand(context.Background(), ast.New(ast.Document, lower(t, "").Span), host)
	require.NoError(t, err)
	assert.Equal(t, ast.Document, got.Kind)
	assert.Empty(t, host.calls)
}
