package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/brack/pkg/token"
)

func span(line, start, end int) token.Span {
	return token.Span{
		Start: token.Position{Line: line, Character: start},
		End:   token.Position{Line: line, Character: end},
	}
}

func sampleSquare() *Node {
	return New(Square, span(0, 0, 12),
		NewLeaf(Module, "std", span(0, 1, 4)),
		NewLeaf(Ident, "*", span(0, 5, 6)),
		New(Expr, span(0, 7, 11), NewLeaf(Text, "bold", span(0, 7, 11))),
	)
}

func TestNode_HeadAndArgs(t *testing.T) {
	sq := sampleSquare()

	module, ident, ok := sq.Head()
	require.True(t, ok)
	assert.Equal(t, "std", module)
	assert.Equal(t, "*", ident)
	require.Len(t, sq.Args(), 1)
	assert.Equal(t, "bold", sq.Args()[0].Children[0].Value)

	broken := New(Curly, span(0, 0, 3), NewInvalid(span(0, 1, 2)))
	_, _, ok = broken.Head()
	assert.False(t, ok)
	assert.Nil(t, broken.Args())
}

func TestFind(t *testing.T) {
	sq := sampleSquare()
	doc := New(Document, sq.Span, New(Stmt, sq.Span, New(Expr, sq.Span, sq)))

	assert.Same(t, sq, Find(doc, sq.ID))
	assert.Same(t, sq.Children[1], Find(doc, sq.Children[1].ID))
	assert.Nil(t, Find(doc, "missing"))
}

func TestClone_IsDeep(t *testing.T) {
	sq := sampleSquare()
	cp := sq.Clone()

	assert.True(t, Equal(sq, cp))
	assert.Equal(t, sq.ID, cp.ID)

	cp.Children[2].Children[0].Value = "changed"
	assert.Equal(t, "bold", sq.Children[2].Children[0].Value)
}

func TestJSON_RoundTrip(t *testing.T) {
	doc := New(Document, span(0, 0, 12),
		New(Stmt, span(0, 0, 12),
			New(Expr, span(0, 0, 12), sampleSquare(), NewInvalid(span(0, 11, 12))),
		),
	)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, Equal(doc, &back))
	assert.Equal(t, doc.ID, back.ID)
}

func TestJSON_Shape(t *testing.T) {
	leaf := NewLeaf(Text, "hi", span(0, 0, 2))
	leaf.ID = "n1"

	data, err := json.Marshal(leaf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Text": {
		"id": "n1",
		"value": "hi",
		"span": {"start": {"line": 0, "character": 0}, "end": {"line": 0, "character": 2}}
	}}`, string(data))
}

func TestJSON_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"two keys", `{"Text": {"value": "a"}, "Ident": {"value": "b"}}`, "exactly one variant"},
		{"unknown variant", `{"Paragraph": {}}`, "unknown variant"},
		{"text without value", `{"Text": {"span": {}}}`, "missing value"},
		{"leaf with children", `{"Invalid": {"children": [{"Text": {"value": "x"}}]}}`, "leaf has children"},
		{"not an object", `[1, 2]`, "ast node"},
		{"null child", `{"Expr": {"children": [null]}}`, "null child"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Node
			err := json.Unmarshal([]byte(tt.input), &n)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestJSON_AssignsMissingIDs(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"Text": {"value": "x"}}`), &n))
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, Text, n.Kind)
	assert.Equal(t, "x", n.Value)
}

func TestDiagnostic(t *testing.T) {
	d := NewDiagnostic(AngleNotClosed, span(2, 4, 9))

	assert.Equal(t, "AngleNotClosed", d.Kind.String())
	assert.Equal(t, "3:5: AngleNotClosed: '<' is never closed", d.Error())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"AngleNotClosed"`)
}

func TestDiagnosticKind_AllNamed(t *testing.T) {
	for k := AngleNotOpened; k <= InvalidBackslash; k++ {
		assert.NotEmpty(t, diagnosticNames[k], "kind %d", k)
		assert.NotEmpty(t, diagnosticMessages[k], "kind %d", k)
	}
	assert.Len(t, diagnosticNames, 14)
}
