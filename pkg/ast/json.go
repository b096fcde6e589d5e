package ast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/open-cli-collective/brack/pkg/nodeid"
	"github.com/open-cli-collective/brack/pkg/token"
)

// body is the payload of an externally tagged node: {"Text": {...}}.
type body struct {
	ID       string     `json:"id,omitempty"`
	Value    *string    `json:"value,omitempty"`
	Children []*Node    `json:"children,omitempty"`
	Span     token.Span `json:"span"`
}

// MarshalJSON encodes n with its kind as the single object key, the shape
// plugins receive for macro calls.
func (n *Node) MarshalJSON() ([]byte, error) {
	b := body{ID: n.ID, Span: n.Span}
	if n.Kind.HasValue() {
		v := n.Value
		b.Value = &v
	}
	if n.Kind.IsInner() {
		b.Children = n.Children
	}
	return json.Marshal(map[string]body{n.Kind.String(): b})
}

// UnmarshalJSON decodes the externally tagged form and validates that the
// node's fields fit its kind. Nodes without an id get a fresh one.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ast node: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("ast node: expected exactly one variant key, got %d", len(raw))
	}

	for tag, payload := range raw {
		kind, ok := parseKind(tag)
		if !ok {
			return fmt.Errorf("ast node: unknown variant %q", tag)
		}

		var b body
		if err := json.Unmarshal(payload, &b); err != nil {
			return fmt.Errorf("ast node %s: %w", tag, err)
		}

		switch {
		case kind.HasValue() && b.Value == nil:
			return fmt.Errorf("ast node %s: missing value", tag)
		case !kind.IsInner() && len(b.Children) > 0:
			return fmt.Errorf("ast node %s: leaf has children", tag)
		}
		for _, c := range b.Children {
			if c == nil {
				return errors.New("ast node: null child")
			}
		}

		*n = Node{ID: b.ID, Kind: kind, Children: b.Children, Span: b.Span}
		if b.Value != nil {
			n.Value = *b.Value
		}
		if n.ID == "" {
			n.ID = nodeid.New()
		}
	}
	return nil
}
