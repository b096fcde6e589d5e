// Package ast defines the semantic tree produced by the transformer and
// consumed by the macro expander and code generator.
package ast

import (
	"fmt"
	"strings"

	"github.com/open-cli-collective/brack/pkg/nodeid"
	"github.com/open-cli-collective/brack/pkg/token"
)

// Kind is the variant tag of a Node.
type Kind int

const (
	Document Kind = iota
	Stmt
	Expr
	Angle
	Square
	Curly
	Ident
	Module
	Text
	Invalid // span of a syntactic error
	Ignored // span of a dropped trivia token
)

var kindNames = [...]string{
	Document: "Document",
	Stmt:     "Stmt",
	Expr:     "Expr",
	Angle:    "Angle",
	Square:   "Square",
	Curly:    "Curly",
	Ident:    "Ident",
	Module:   "Module",
	Text:     "Text",
	Invalid:  "Invalid",
	Ignored:  "Ignored",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func parseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsBracket reports whether k is one of the three form kinds.
func (k Kind) IsBracket() bool {
	return k == Angle || k == Square || k == Curly
}

// HasValue reports whether nodes of kind k carry a string value.
func (k Kind) HasValue() bool {
	return k == Ident || k == Module || k == Text
}

// IsInner reports whether nodes of kind k carry children.
func (k Kind) IsInner() bool {
	return k <= Curly
}

// Node is an AST node. Inner kinds use Children, Ident/Module/Text use Value,
// and Invalid/Ignored carry only a span.
type Node struct {
	ID       string
	Kind     Kind
	Value    string
	Children []*Node
	Span     token.Span
}

// New builds an inner node.
func New(kind Kind, span token.Span, children ...*Node) *Node {
	return &Node{ID: nodeid.New(), Kind: kind, Children: children, Span: span}
}

// NewLeaf builds an Ident, Module or Text leaf.
func NewLeaf(kind Kind, value string, span token.Span) *Node {
	return &Node{ID: nodeid.New(), Kind: kind, Value: value, Span: span}
}

// NewInvalid builds an Invalid marker.
func NewInvalid(span token.Span) *Node {
	return &Node{ID: nodeid.New(), Kind: Invalid, Span: span}
}

// NewIgnored builds an Ignored marker.
func NewIgnored(span token.Span) *Node {
	return &Node{ID: nodeid.New(), Kind: Ignored, Span: span}
}

// Head returns the module and identifier of a well-formed form, and false
// when the form's head did not validate.
func (n *Node) Head() (module, ident string, ok bool) {
	if !n.Kind.IsBracket() || len(n.Children) < 2 {
		return "", "", false
	}
	m, i := n.Children[0], n.Children[1]
	if m.Kind != Module || i.Kind != Ident {
		return "", "", false
	}
	return m.Value, i.Value, true
}

// Args returns the argument expressions of a well-formed form.
func (n *Node) Args() []*Node {
	if _, _, ok := n.Head(); !ok {
		return nil
	}
	var out []*Node
	for _, c := range n.Children[2:] {
		if c.Kind == Expr {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of n sharing no nodes with it. IDs are kept.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
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

// Find returns the node with the given id inside root, or nil.
func Find(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Equal reports whether a and b have the same shape, kinds, values and
// spans. IDs are not compared.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Value != b.Value || a.Span != b.Span || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
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
	if n.Kind.HasValue() {
		fmt.Fprintf(sb, " %q", n.Value)
	}
	fmt.Fprintf(sb, " %s\n", n.Span)
	for _, c := range n.Children {
		dump(sb, c, depth+1)
	}
}
