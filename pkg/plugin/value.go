package plugin

import (
	"encoding/json"
	"fmt"
)

// ValueKind is the tag of a Value.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueTextArray
	ValueTextOption
)

// Value is one marshaled argument handed to a plugin command.
type Value struct {
	Kind   ValueKind
	Text   string
	Array  []string
	Option *string
}

// Text wraps a single string.
func Text(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// TextArray wraps the strings consumed by a trailing TArray parameter.
func TextArray(ss []string) Value {
	if ss == nil {
		ss = []string{}
	}
	return Value{Kind: ValueTextArray, Array: ss}
}

// Some wraps a present optional argument.
func Some(s string) Value {
	return Value{Kind: ValueTextOption, Option: &s}
}

// None is an absent optional argument.
func None() Value {
	return Value{Kind: ValueTextOption}
}

// MarshalJSON encodes {"Text": s}, {"TextArray": [...]} or {"TextOption": s|null}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueText:
		return json.Marshal(map[string]string{"Text": v.Text})
	case ValueTextArray:
		arr := v.Array
		if arr == nil {
			arr = []string{}
		}
		return json.Marshal(map[string][]string{"TextArray": arr})
	case ValueTextOption:
		return json.Marshal(map[string]*string{"TextOption": v.Option})
	}
	return nil, fmt.Errorf("unknown value kind %d", int(v.Kind))
}

// UnmarshalJSON decodes the forms written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("invalid value: expected one key, got %d", len(raw))
	}

	for tag, payload := range raw {
		switch tag {
		case "Text":
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return fmt.Errorf("invalid Text value: %w", err)
			}
			*v = Text(s)
		case "TextArray":
			var ss []string
			if err := json.Unmarshal(payload, &ss); err != nil {
				return fmt.Errorf("invalid TextArray value: %w", err)
			}
			*v = TextArray(ss)
		case "TextOption":
			var s *string
			if err := json.Unmarshal(payload, &s); err != nil {
				return fmt.Errorf("invalid TextOption value: %w", err)
			}
			*v = Value{Kind: ValueTextOption, Option: s}
		default:
			return fmt.Errorf("unknown value variant %q", tag)
		}
	}
	return nil
}
