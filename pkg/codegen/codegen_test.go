package codegen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/expander"
	"github.com/open-cli-collective/brack/pkg/parser"
	"github.com/open-cli-collective/brack/pkg/plugin"
	"github.com/open-cli-collective/brack/pkg/plugin/builtin"
	"github.com/open-cli-collective/brack/pkg/token"
	"github.com/open-cli-collective/brack/pkg/tokenizer"
	"github.com/open-cli-collective/brack/pkg/transformer"
)

func newHost(t *testing.T, features plugin.Features) *plugin.Host {
	t.Helper()
	h := plugin.NewHost()
	require.NoError(t, h.Load(context.Background(), plugin.Descriptor{
		Name:     "std",
		Features: features,
		Open:     builtin.Opener("std"),
	}))
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
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

func generate(t *testing.T, h *plugin.Host, src string) (string, error) {
	t.Helper()
	ctx := context.Background()
	root, err := expander.Expand(ctx, lower(t, src), h)
	require.NoError(t, err)
	return Generate(ctx, root, h)
}

func TestGenerate(t *testing.T) {
	h := newHost(t, plugin.Features{})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Hello, World!\n", "Hello, World!"},
		{"inline form", "Hello, [std.* World!]", "Hello, <b>World!</b>"},
		{"block form then text", "{std.* Heading}\nHello, World!", "<h1>Heading</h1>Hello, World!"},
		{"escaped dots", `[std.@ My website, https\.example\.com]`, `<a href="https.example.com">My website</a>`},
		{"nested forms", "{std.* [std./ x] y}", "<h1><i>x</i> y</h1>"},
		{"array argument", "{std.- a, b, c}", "<ul><li>a</li><li>b</li><li>c</li></ul>"},
		{"optional argument absent", "{std.quote q}", "<blockquote>q</blockquote>"},
		{"optional argument present", "{std.quote q, me}", `<blockquote cite="me">q</blockquote>`},
		{"paragraphs", "a\n\nb", "ab"},
		{"macro expanded away", "a<std.comment hidden>b", "ab"},
		{"empty document", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generate(t, h, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_ArityMismatch(t *testing.T) {
	h := newHost(t, plugin.Features{})

	_, err := generate(t, h, "[std.* ]")
	require.Error(t, err)

	var arityErr *plugin.ArityError
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, plugin.ArityError{Command: "*", Min: 1, Max: 1, Got: 0}, *arityErr)

	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "std.*", genErr.Context)
	assert.Equal(t, token.Span{End: token.Position{Character: 8}}, genErr.Span)
	assert.Equal(t, `1:1: std.*: arity mismatch for "*": expected 1 argument(s), got 0`, err.Error())
}

func TestGenerate_DispatchErrors(t *testing.T) {
	h := newHost(t, plugin.Features{})

	tests := []struct {
		name        string
		input       string
		wantErr     error
		wantContext string
	}{
		{"unknown plugin", "[nope.* x]", plugin.ErrPluginNotFound, "nope.*"},
		{"unknown command", "[std.? x]", plugin.ErrCommandNotFound, "std.?"},
		{"wrong kind", "{std./ x}", plugin.ErrCommandNotFound, "std./"},
		{"error in argument", "{std.* [std.? x]}", plugin.ErrCommandNotFound, "std.?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate(t, h, tt.input)
			require.ErrorIs(t, err, tt.wantErr)

			var genErr *Error
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.wantContext, genErr.Context)
		})
	}
}

func TestGenerate_UnexpandedMacro(t *testing.T) {
	h := newHost(t, plugin.Features{})
	root := lower(t, "x <std.comment y>")

	_, err := Generate(context.Background(), root, h)
	require.ErrorIs(t, err, ErrUnexpandedMacro)
	assert.Contains(t, err.Error(), "std.comment")
}

func TestGenerate_InvalidNode(t *testing.T) {
	h := newHost(t, plugin.Features{})
	sp := token.Span{Start: token.Position{Line: 1, Character: 2}}

	tests := []struct {
		name string
		root *ast.Node
	}{
		{
			name: "invalid leaf",
			root: ast.New(ast.Document, sp, ast.New(ast.Stmt, sp, ast.New(ast.Expr, sp, ast.NewInvalid(sp)))),
		},
		{
			name: "form without head",
			root: ast.New(ast.Document, sp, ast.New(ast.Stmt, sp, ast.New(ast.Expr, sp, ast.New(ast.Square, sp, ast.NewInvalid(sp))))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(context.Background(), tt.root, h)
			require.ErrorIs(t, err, ErrInvalidNode)
			assert.Contains(t, err.Error(), "2:3:")
		})
	}
}

func TestGenerate_IgnoredAndLegacyLeaves(t *testing.T) {
	h := newHost(t, plugin.Features{})
	sp := token.Span{}
	root := ast.New(ast.Document, sp,
		ast.NewIgnored(sp),
		ast.New(ast.Stmt, sp, ast.New(ast.Expr, sp,
			ast.NewLeaf(ast.Module, "m", sp),
			ast.NewLeaf(ast.Ident, "i", sp),
		)),
	)

	got, err := Generate(context.Background(), root, h)
	require.NoError(t, err)
	assert.Equal(t, "mi", got)
}

func TestGenerate_StdHooks(t *testing.T) {
	h := newHost(t, plugin.Features{DocumentHook: true, TextHook: true})

	got, err := generate(t, h, "a & b [std.* x & y]")
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html>\n<html>\n<body>\na &amp; b <b>x &amp; y</b>\n</body>\n</html>\n", got)
}

func TestGenerate_HookOrder(t *testing.T) {
	ctx := context.Background()
	wrapWith := func(l, r string) plugin.Func {
		return plugin.TextFunc(func(a []plugin.Value) (string, error) {
			return l + a[0].Text + r, nil
		})
	}
	hooks := plugin.NewNative(
		[]plugin.Metadata{
			{CommandName: "text", CallName: "text", ArgumentTypes: []plugin.Argument{{Name: "t", Type: plugin.Inline}}, ReturnType: plugin.Inline},
			{CommandName: "expr", CallName: "expr", ArgumentTypes: []plugin.Argument{{Name: "t", Type: plugin.Inline}}, ReturnType: plugin.Inline},
			{CommandName: "stmt", CallName: "stmt", ArgumentTypes: []plugin.Argument{{Name: "t", Type: plugin.Block}}, ReturnType: plugin.Block},
			{CommandName: "document", CallName: "document", ArgumentTypes: []plugin.Argument{{Name: "t", Type: plugin.Block}}, ReturnType: plugin.Block},
		},
		map[string]plugin.Func{
			"text":     wrapWith("t(", ")"),
			"expr":     wrapWith("e(", ")"),
			"stmt":     wrapWith("s(", ")"),
			"document": wrapWith("d(", ")"),
		},
	)

	h := newHost(t, plugin.Features{})
	require.NoError(t, h.Register(ctx, "hooks", plugin.Features{
		DocumentHook: true, StmtHook: true, ExprHook: true, TextHook: true,
	}, hooks))

	got, err := generate(t, h, "a [std.* b]\n\nc")
	require.NoError(t, err)
	// Arguments are expressions too, so they pass through the expr hook.
	assert.Equal(t, "d(s(e(t(a )<b>e(t(b))</b>))s(e(t(c))))", got)
}

func TestGenerate_HookFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("hook failed")
	failing := plugin.NewNative(
		[]plugin.Metadata{{CommandName: "text", CallName: "text", ArgumentTypes: []plugin.Argument{{Name: "t", Type: plugin.Inline}}, ReturnType: plugin.Inline}},
		map[string]plugin.Func{"text": func(context.Context, []byte) ([]byte, error) { return nil, boom }},
	)
	h := newHost(t, plugin.Features{})
	require.NoError(t, h.Register(ctx, "f", plugin.Features{TextHook: true}, failing))

	_, err := generate(t, h, "x")
	require.ErrorIs(t, err, boom)

	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "text hook", genErr.Context)
}
