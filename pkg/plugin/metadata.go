package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Argument is one positional parameter of a command.
type Argument struct {
	Name string
	Type Type
}

// MarshalJSON encodes the argument as a ["name", Type] pair.
func (a Argument) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{a.Name, a.Type})
}

// UnmarshalJSON decodes a ["name", Type] pair.
func (a *Argument) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid argument: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("invalid argument: expected [name, type], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return fmt.Errorf("invalid argument name: %w", err)
	}
	return json.Unmarshal(pair[1], &a.Type)
}

// Metadata describes one exported command of a plugin.
type Metadata struct {
	CommandName   string     `json:"command_name"`
	CallName      string     `json:"call_name"`
	ArgumentTypes []Argument `json:"argument_types"`
	ReturnType    Type       `json:"return_type"`
}

// Validate checks the command kind invariants: the return type is a
// dispatch kind and a TArray parameter, if any, is the last one.
func (m Metadata) Validate() error {
	if m.CommandName == "" {
		return errors.New("command_name is required")
	}
	if m.CallName == "" {
		return fmt.Errorf("command %q: call_name is required", m.CommandName)
	}
	switch m.ReturnType.Kind {
	case TInline, TBlock, TAST:
	default:
		return fmt.Errorf("command %q: return type must be TInline, TBlock or TAST, got %s", m.CommandName, m.ReturnType)
	}

	for i, arg := range m.ArgumentTypes {
		if arg.Type.Kind == TArray && i != len(m.ArgumentTypes)-1 {
			return fmt.Errorf("command %q: TArray parameter %q must be the last parameter", m.CommandName, arg.Name)
		}
		if (arg.Type.Kind == TOption || arg.Type.Kind == TArray) && arg.Type.Elem == nil {
			return fmt.Errorf("command %q: parameter %q has no element type", m.CommandName, arg.Name)
		}
	}
	return nil
}

// Signature renders the command as name(arg: Type, ...) -> Type.
func (m Metadata) Signature() string {
	s := m.CommandName + "("
	for i, arg := range m.ArgumentTypes {
		if i > 0 {
			s += ", "
		}
		s += arg.Name + ": " + arg.Type.String()
	}
	return s + ") -> " + m.ReturnType.String()
}
