package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/brack/pkg/token"
)

func tok(kind token.Kind, value string, col, width int) token.Token {
	return token.Token{
		Kind:  kind,
		Value: value,
		Span: token.Span{
			Start: token.Position{Character: col},
			End:   token.Position{Character: col + width},
		},
	}
}

// square builds the tree for `[a.b x]`.
func square() *Node {
	return NewInner(Square,
		NewLeaf(tok(token.SquareBracketOpen, "[", 0, 1)),
		NewLeaf(tok(token.Module, "a", 1, 1)),
		NewLeaf(tok(token.Dot, ".", 2, 1)),
		NewLeaf(tok(token.Ident, "b", 3, 1)),
		NewLeaf(tok(token.Whitespace, " ", 4, 1)),
		NewInner(Expr, NewLeaf(tok(token.Text, "x", 5, 1))),
		NewLeaf(tok(token.SquareBracketClose, "]", 6, 1)),
	)
}

func TestKind(t *testing.T) {
	tests := []struct {
		kind    Kind
		name    string
		leaf    bool
		bracket bool
	}{
		{Document, "Document", false, false},
		{Square, "Square", false, true},
		{BackSlash, "BackSlash", false, false},
		{Text, "Text", true, false},
		{EOF, "EOF", true, false},
		{Kind(99), "Kind(99)", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.leaf, tt.kind.IsLeaf())
			assert.Equal(t, tt.bracket, tt.kind.IsBracket())
		})
	}

	assert.True(t, AngleBracketOpen.IsOpen())
	assert.True(t, CurlyBracketClose.IsClose())
	assert.False(t, Comma.IsOpen())
}

func TestLeafKind(t *testing.T) {
	assert.Equal(t, BackSlashLeaf, LeafKind(token.BackSlash))
	assert.Equal(t, CurlyBracketOpen, LeafKind(token.CurlyBracketOpen))
	assert.Equal(t, EOF, LeafKind(token.EOF))
}

func TestNewInner_Span(t *testing.T) {
	n := square()
	assert.Equal(t, token.Span{End: token.Position{Character: 7}}, n.Span)
	assert.NotEmpty(t, n.ID)
	assert.NotEqual(t, n.ID, n.Children[0].ID)

	empty := NewInner(Stmt)
	assert.Equal(t, token.Span{}, empty.Span)
}

func TestAdd(t *testing.T) {
	n := NewInner(Expr)
	n.Add(NewLeaf(tok(token.Text, "ab", 3, 2)))
	assert.Equal(t, 3, n.Span.Start.Character)
	assert.Equal(t, 5, n.Span.End.Character)

	n.Add(NewLeaf(tok(token.Text, "c", 5, 1)))
	assert.Equal(t, 3, n.Span.Start.Character)
	assert.Equal(t, 6, n.Span.End.Character)
	assert.Len(t, n.Children, 2)
}

func TestSource(t *testing.T) {
	assert.Equal(t, "[a.b x]", square().Source())

	escaped := NewInner(BackSlash, NewLeaf(tok(token.Text, "[", 1, 1)))
	assert.Equal(t, `\[`, escaped.Source())
}

func TestOpenClose(t *testing.T) {
	n := square()
	require.NotNil(t, n.Open())
	assert.Equal(t, "[", n.Open().Value)
	require.NotNil(t, n.Close())
	assert.Equal(t, "]", n.Close().Value)

	unclosed := NewInner(Square, NewLeaf(tok(token.SquareBracketOpen, "[", 0, 1)), NewLeaf(tok(token.Text, "x", 1, 1)))
	assert.Nil(t, unclosed.Close())

	assert.Nil(t, NewInner(Expr).Open())
}

func TestLeavesAndWalk(t *testing.T) {
	n := square()

	var values []string
	for _, l := range n.Leaves() {
		values = append(values, l.Value)
	}
	assert.Equal(t, []string{"[", "a", ".", "b", " ", "x", "]"}, values)

	var visited int
	Walk(n, func(c *Node) bool {
		visited++
		return c.Kind != Expr
	})
	assert.Equal(t, 8, visited, "children of Expr are skipped")
}

func TestDump(t *testing.T) {
	want := `Expr 0:5-0:6
  Text "x" 0:5-0:6
`
	assert.Equal(t, want, Dump(square().Children[5]))
}
