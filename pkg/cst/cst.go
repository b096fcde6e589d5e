// Package cst defines the concrete syntax tree: a full-fidelity tree that
// keeps every token, trivia and unbalanced brackets included.
package cst

import (
	"fmt"
	"strings"

	"github.com/open-cli-collective/brack/pkg/nodeid"
	"github.com/open-cli-collective/brack/pkg/token"
)

// Kind is the variant tag of a Node.
type Kind int

const (
	// Inner nodes.
	Document Kind = iota
	Stmt
	Expr
	Angle
	Curly
	Square
	BackSlash // escape; holds the escaped literal as a Text child, or nothing

	// Leaves, one per token kind.
	Text
	Module
	Ident
	NewLine
	Whitespace
	Dot
	Comma
	BackSlashLeaf
	AngleBracketOpen
	AngleBracketClose
	SquareBracketOpen
	SquareBracketClose
	CurlyBracketOpen
	CurlyBracketClose
	EOF
)

var kindNames = [...]string{
	Document:           "Document",
	Stmt:               "Stmt",
	Expr:               "Expr",
	Angle:              "Angle",
	Curly:              "Curly",
	Square:             "Square",
	BackSlash:          "BackSlash",
	Text:               "Text",
	Module:             "Module",
	Ident:              "Ident",
	NewLine:            "NewLine",
	Whitespace:         "Whitespace",
	Dot:                "Dot",
	Comma:              "Comma",
	BackSlashLeaf:      "BackSlashLeaf",
	AngleBracketOpen:   "AngleBracketOpen",
	AngleBracketClose:  "AngleBracketClose",
	SquareBracketOpen:  "SquareBracketOpen",
	SquareBracketClose: "SquareBracketClose",
	CurlyBracketOpen:   "CurlyBracketOpen",
	CurlyBracketClose:  "CurlyBracketClose",
	EOF:                "EOF",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLeaf reports whether nodes of kind k carry a value instead of children.
func (k Kind) IsLeaf() bool {
	return k >= Text
}

// IsBracket reports whether k is one of the three form kinds.
func (k Kind) IsBracket() bool {
	return k == Angle || k == Curly || k == Square
}

// IsClose reports whether k is a closing bracket leaf.
func (k Kind) IsClose() bool {
	return k == AngleBracketClose || k == SquareBracketClose || k == CurlyBracketClose
}

// IsOpen reports whether k is an opening bracket leaf.
func (k Kind) IsOpen() bool {
	return k == AngleBracketOpen || k == SquareBracketOpen || k == CurlyBracketOpen
}

var leafKinds = map[token.Kind]Kind{
	token.Text:               Text,
	token.Module:             Module,
	token.Ident:              Ident,
	token.NewLine:            NewLine,
	token.Whitespace:         Whitespace,
	token.Dot:                Dot,
	token.Comma:              Comma,
	token.BackSlash:          BackSlashLeaf,
	token.AngleBracketOpen:   AngleBracketOpen,
	token.AngleBracketClose:  AngleBracketClose,
	token.SquareBracketOpen:  SquareBracketOpen,
	token.SquareBracketClose: SquareBracketClose,
	token.CurlyBracketOpen:   CurlyBracketOpen,
	token.CurlyBracketClose:  CurlyBracketClose,
	token.EOF:                EOF,
}

// LeafKind returns the leaf kind mirroring a token kind.
func LeafKind(k token.Kind) Kind {
	return leafKinds[k]
}

// Node is a CST node. Inner nodes use Children; leaves use Value.
type Node struct {
	ID       string
	Kind     Kind
	Value    string
	Children []*Node
	Span     token.Span
}

// NewLeaf builds the leaf for tok.
func NewLeaf(tok token.Token) *Node {
	return &Node{
		ID:    nodeid.New(),
		Kind:  LeafKind(tok.Kind),
		Value: tok.Value,
		Span:  tok.Span,
	}
}

// NewInner builds an inner node whose span is the merge of its children's.
// A childless node gets the zero span; callers set Span afterwards when they
// know better.
func NewInner(kind Kind, children ...*Node) *Node {
	n := &Node{ID: nodeid.New(), Kind: kind, Children: children}
	n.Span = childSpan(children)
	return n
}

// Add appends a child and widens the span.
func (n *Node) Add(child *Node) {
	if len(n.Children) == 0 && n.Span == (token.Span{}) {
		n.Span = child.Span
	} else {
		n.Span = n.Span.Merge(child.Span)
	}
	n.Children = append(n.Children, child)
}

func childSpan(children []*Node) token.Span {
	spans := make([]token.Span, 0, len(children))
	for _, c := range children {
		spans = append(spans, c.Span)
	}
	return token.MergeAll(spans...)
}

// Source reproduces the text the node was parsed from.
func (n *Node) Source() string {
	var sb strings.Builder
	n.writeSource(&sb)
	return sb.String()
}

func (n *Node) writeSource(sb *strings.Builder) {
	if n.Kind.IsLeaf() {
		sb.WriteString(n.Value)
		return
	}
	if n.Kind == BackSlash {
		sb.WriteString(`\`)
	}
	for _, c := range n.Children {
		c.writeSource(sb)
	}
}

// Leaves returns the leaves of n in pre-order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	Walk(n, func(c *Node) bool {
		if c.Kind.IsLeaf() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Open returns the opening leaf of a bracket node.
func (n *Node) Open() *Node {
	if !n.Kind.IsBracket() || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Close returns the closing leaf of a bracket node, or nil if the bracket
// was never closed.
func (n *Node) Close() *Node {
	if !n.Kind.IsBracket() || len(n.Children) < 2 {
		return nil
	}
	last := n.Children[len(n.Children)-1]
	if last.Kind.IsClose() {
		return last
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Dump renders the tree one node per line, indented by depth.
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind.String())
	if n.Kind.IsLeaf() && n.Kind != EOF {
		fmt.Fprintf(sb, " %q", n.Value)
	}
	fmt.Fprintf(sb, " %s\n", n.Span)
	for _, c := range n.Children {
		dump(sb, c, depth+1)
	}
}
