package ast

import (
	"encoding/json"
	"fmt"

	"github.com/open-cli-collective/brack/pkg/token"
)

// DiagnosticKind classifies a transformer diagnostic.
type DiagnosticKind int

const (
	AngleNotOpened DiagnosticKind = iota
	AngleNotClosed
	CurlyNotOpened
	CurlyNotClosed
	SquareNotOpened
	SquareNotClosed
	MismatchedBracket
	ModuleNotFound
	IdentifierNotFound
	DotNotFound
	CommaNotFound
	UnexpectedDot
	UnexpectedComma
	InvalidBackslash
)

var diagnosticNames = [...]string{
	AngleNotOpened:     "AngleNotOpened",
	AngleNotClosed:     "AngleNotClosed",
	CurlyNotOpened:     "CurlyNotOpened",
	CurlyNotClosed:     "CurlyNotClosed",
	SquareNotOpened:    "SquareNotOpened",
	SquareNotClosed:    "SquareNotClosed",
	MismatchedBracket:  "MismatchedBracket",
	ModuleNotFound:     "ModuleNotFound",
	IdentifierNotFound: "IdentifierNotFound",
	DotNotFound:        "DotNotFound",
	CommaNotFound:      "CommaNotFound",
	UnexpectedDot:      "UnexpectedDot",
	UnexpectedComma:    "UnexpectedComma",
	InvalidBackslash:   "InvalidBackslash",
}

var diagnosticMessages = [...]string{
	AngleNotOpened:     "'>' has no matching '<'",
	AngleNotClosed:     "'<' is never closed",
	CurlyNotOpened:     "'}' has no matching '{'",
	CurlyNotClosed:     "'{' is never closed",
	SquareNotOpened:    "']' has no matching '['",
	SquareNotClosed:    "'[' is never closed",
	MismatchedBracket:  "closing bracket does not match the opening bracket",
	ModuleNotFound:     "expected a module name after the opening bracket",
	IdentifierNotFound: "expected a command name after the module",
	DotNotFound:        "expected '.' between module and command",
	CommaNotFound:      "expected ',' between arguments",
	UnexpectedDot:      "unexpected '.' in argument (escape it as '\\.')",
	UnexpectedComma:    "unexpected ',' (empty argument)",
	InvalidBackslash:   "backslash does not escape a special character",
}

func (k DiagnosticKind) String() string {
	if k >= 0 && int(k) < len(diagnosticNames) {
		return diagnosticNames[k]
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// MarshalJSON encodes the kind by name.
func (k DiagnosticKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Message returns the default human readable text for k.
func (k DiagnosticKind) Message() string {
	if k >= 0 && int(k) < len(diagnosticMessages) {
		return diagnosticMessages[k]
	}
	return k.String()
}

// Diagnostic is a non-fatal syntax problem found by the transformer.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Span    token.Span     `json:"span"`
	Message string         `json:"message"`
}

// NewDiagnostic builds a diagnostic with the kind's default message.
func NewDiagnostic(kind DiagnosticKind, span token.Span) Diagnostic {
	return Diagnostic{Kind: kind, Span: span, Message: kind.Message()}
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Span.Start.Line+1, d.Span.Start.Character+1, d.Kind, d.Message)
}
