package plugin

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the host.
var (
	ErrPluginNotFound  = errors.New("plugin not found")
	ErrCommandNotFound = errors.New("command not found")
	ErrDuplicatePlugin = errors.New("plugin already loaded")
	ErrDuplicateHook   = errors.New("global hook already provided by another plugin")
	ErrMissingHook     = errors.New("plugin does not export the declared hook")
)

// CallError wraps a failure to dispatch or run a plugin command.
type CallError struct {
	Module  string
	Command string
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Module, e.Command, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ArityError reports that a form supplied the wrong number of arguments.
// Max is Unbounded when the command takes a trailing array.
type ArityError struct {
	Command string
	Min     int
	Max     int
	Got     int
}

func (e *ArityError) Error() string {
	var want string
	switch {
	case e.Max == Unbounded:
		want = fmt.Sprintf("at least %d", e.Min)
	case e.Min == e.Max:
		want = fmt.Sprintf("%d", e.Min)
	default:
		want = fmt.Sprintf("%d to %d", e.Min, e.Max)
	}
	return fmt.Sprintf("arity mismatch for %q: expected %s argument(s), got %d", e.Command, want, e.Got)
}
