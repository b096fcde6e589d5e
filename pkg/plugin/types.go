// Package plugin hosts the WASM plugins that render forms and expand
// macros, and packs evaluated arguments into the values they receive.
package plugin

import (
	"encoding/json"
	"fmt"
)

// TypeKind is the tag of a command Type.
type TypeKind int

const (
	TInline TypeKind = iota
	TBlock
	TAST
	TOption
	TArray
)

var typeKindNames = [...]string{
	TInline: "TInline",
	TBlock:  "TBlock",
	TAST:    "TAST",
	TOption: "TOption",
	TArray:  "TArray",
}

func (k TypeKind) String() string {
	if k >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// Type is a command or argument type. Elem is set only for TOption and
// TArray.
type Type struct {
	Kind TypeKind
	Elem *Type
}

// Convenience values for the scalar types.
var (
	Inline = Type{Kind: TInline}
	Block  = Type{Kind: TBlock}
	AST    = Type{Kind: TAST}
)

// Option wraps t in TOption.
func Option(t Type) Type {
	return Type{Kind: TOption, Elem: &t}
}

// Array wraps t in TArray.
func Array(t Type) Type {
	return Type{Kind: TArray, Elem: &t}
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Elem == nil || o.Elem == nil {
		return t.Elem == o.Elem
	}
	return t.Elem.Equal(*o.Elem)
}

func (t Type) String() string {
	if t.Elem != nil {
		return fmt.Sprintf("%s(%s)", t.Kind, t.Elem)
	}
	return t.Kind.String()
}

// MarshalJSON encodes scalars as "TInline" and wrappers as {"TOption": T}.
func (t Type) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TInline, TBlock, TAST:
		return json.Marshal(t.Kind.String())
	case TOption, TArray:
		if t.Elem == nil {
			return nil, fmt.Errorf("%s without element type", t.Kind)
		}
		return json.Marshal(map[string]Type{t.Kind.String(): *t.Elem})
	}
	return nil, fmt.Errorf("unknown type kind %d", int(t.Kind))
}

// UnmarshalJSON decodes the forms written by MarshalJSON.
func (t *Type) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "TInline":
			*t = Inline
		case "TBlock":
			*t = Block
		case "TAST":
			*t = AST
		default:
			return fmt.Errorf("unknown type %q", name)
		}
		return nil
	}

	var wrapped map[string]Type
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("invalid type: %w", err)
	}
	if len(wrapped) != 1 {
		return fmt.Errorf("invalid type: expected one key, got %d", len(wrapped))
	}
	for name, elem := range wrapped {
		switch name {
		case "TOption":
			*t = Option(elem)
		case "TArray":
			*t = Array(elem)
		default:
			return fmt.Errorf("unknown type %q", name)
		}
	}
	return nil
}
