// Package token defines the token algebra and source spans shared by every
// stage of the compiler.
package token

import "fmt"

// Kind identifies the variant of a Token.
type Kind int

const (
	Text Kind = iota // run of non-special graphemes
	Module           // module name at a form head
	Ident            // command name at a form head
	NewLine
	Whitespace
	Dot
	Comma
	BackSlash
	AngleBracketOpen
	AngleBracketClose
	SquareBracketOpen
	SquareBracketClose
	CurlyBracketOpen
	CurlyBracketClose
	EOF
)

var kindNames = [...]string{
	Text:               "Text",
	Module:             "Module",
	Ident:              "Ident",
	NewLine:            "NewLine",
	Whitespace:         "Whitespace",
	Dot:                "Dot",
	Comma:              "Comma",
	BackSlash:          "BackSlash",
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

// IsOpen reports whether k opens a form.
func (k Kind) IsOpen() bool {
	return k == AngleBracketOpen || k == SquareBracketOpen || k == CurlyBracketOpen
}

// IsClose reports whether k closes a form.
func (k Kind) IsClose() bool {
	return k == AngleBracketClose || k == SquareBracketClose || k == CurlyBracketClose
}

// Closer returns the closing kind matching an opening kind, or EOF if k
// does not open a form.
func (k Kind) Closer() Kind {
	switch k {
	case AngleBracketOpen:
		return AngleBracketClose
	case SquareBracketOpen:
		return SquareBracketClose
	case CurlyBracketOpen:
		return CurlyBracketClose
	}
	return EOF
}

// Token is a single lexeme with its source span.
type Token struct {
	Kind  Kind
	Value string // original text; empty only for EOF
	Span  Span
}

// Literal returns the text the token was scanned from.
func (t Token) Literal() string {
	return t.Value
}

func (t Token) String() string {
	switch t.Kind {
	case Text, Module, Ident:
		return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Value, t.Span)
	}
	return fmt.Sprintf("%s@%s", t.Kind, t.Span)
}
