// Package tokenizer turns .[] source text into a flat token stream.
//
// The tokenizer walks the input one extended grapheme cluster at a time, so
// spans count user-perceived characters: "🇯🇵" advances the column by one.
// It never rejects well-formed UTF-8; unbalanced brackets are left for the
// parser and transformer to report.
package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/open-cli-collective/brack/pkg/token"
)

// ErrInvalidUTF8 is returned for input that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("source is not valid UTF-8")

// escapable maps the graphemes a backslash may escape to the token emitted
// for them.
var escapable = map[string]token.Kind{
	".":  token.Dot,
	",":  token.Comma,
	"<":  token.AngleBracketOpen,
	">":  token.AngleBracketClose,
	"{":  token.CurlyBracketOpen,
	"}":  token.CurlyBracketClose,
	"[":  token.SquareBracketOpen,
	"]":  token.SquareBracketClose,
	"\\": token.BackSlash,
}

// TokenizeFile reads path and tokenizes its contents.
func TokenizeFile(path string) ([]token.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return Tokenize(path, string(data))
}

// Tokenize scans src and returns its tokens, always terminated by EOF.
// path is only used to label errors.
func Tokenize(path, src string) ([]token.Token, error) {
	if !utf8.ValidString(src) {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidUTF8)
	}

	t := &tokenizer{graphemes: splitGraphemes(src)}
	t.run()
	return t.tokens, nil
}

func splitGraphemes(src string) []string {
	out := make([]string, 0, len(src))
	gr := uniseg.NewGraphemes(src)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

type nestCounts struct {
	angle, curly, square int
}

func (n nestCounts) any() bool {
	return n.angle > 0 || n.curly > 0 || n.square > 0
}

// tokenizer is the mutable cursor of a single Tokenize call.
type tokenizer struct {
	graphemes []string
	pos       int
	line      int
	column    int

	pool      strings.Builder
	poolStart token.Position

	tokens          []token.Token
	nest            nestCounts
	lookingForIdent bool
}

func (t *tokenizer) run() {
	for {
		if t.pos >= len(t.graphemes) {
			t.flush(token.Text)
			start := t.here()
			t.tokens = append(t.tokens, token.Token{Kind: token.EOF, Span: token.Span{Start: start, End: start}})
			return
		}

		h := t.graphemes[t.pos]
		h2 := t.peek(1)

		switch {
		case h == "\\":
			t.escape()
		case t.lookingForIdent && t.ordinary(h) && endsIdent(h2):
			t.push(h)
			t.flush(token.Ident)
			t.lookingForIdent = false
		case t.lookingForIdent && t.ordinary(h) && h2 == ".":
			t.push(h)
			t.flush(token.Module)
		case h == "<":
			t.open(token.AngleBracketOpen, &t.nest.angle)
		case h == "{":
			t.open(token.CurlyBracketOpen, &t.nest.curly)
		case h == "[":
			t.open(token.SquareBracketOpen, &t.nest.square)
		case h == ">":
			t.close(token.AngleBracketClose, &t.nest.angle)
		case h == "}":
			t.close(token.CurlyBracketClose, &t.nest.curly)
		case h == "]":
			t.close(token.SquareBracketClose, &t.nest.square)
		case h == "." && t.nest.any():
			t.symbol(token.Dot)
		case h == "," && t.nest.any():
			t.symbol(token.Comma)
		case h == " " && t.nest.any():
			t.symbol(token.Whitespace)
		case isNewline(h):
			t.symbol(token.NewLine)
		default:
			t.push(h)
		}
	}
}

// escape emits the backslash and, when it is followed by an escapable
// symbol, that symbol as its own token without touching the nest counters.
func (t *tokenizer) escape() {
	t.symbol(token.BackSlash)
	if kind, ok := escapable[t.peek(0)]; ok {
		t.symbol(kind)
	}
}

func (t *tokenizer) open(kind token.Kind, counter *int) {
	t.symbol(kind)
	*counter++
	t.lookingForIdent = true
}

func (t *tokenizer) close(kind token.Kind, counter *int) {
	t.symbol(kind)
	if *counter > 0 {
		*counter--
	}
	t.lookingForIdent = false
}

// ordinary reports whether h would be pooled rather than emitted on its own.
func (t *tokenizer) ordinary(h string) bool {
	switch h {
	case "\\", "<", ">", "{", "}", "[", "]":
		return false
	case ".", ",", " ":
		return !t.nest.any()
	}
	return !isNewline(h)
}

// endsIdent reports whether the lookahead terminates a form head identifier.
func endsIdent(h2 string) bool {
	switch h2 {
	case "", " ", ">", "}", "]", ",", "<", "{", "[", "\\":
		return true
	}
	return isNewline(h2)
}

func isNewline(h string) bool {
	return h == "\n" || h == "\r\n"
}

func (t *tokenizer) here() token.Position {
	return token.Position{Line: t.line, Character: t.column}
}

func (t *tokenizer) peek(offset int) string {
	if i := t.pos + offset; i < len(t.graphemes) {
		return t.graphemes[i]
	}
	return ""
}

func (t *tokenizer) advance() {
	h := t.graphemes[t.pos]
	t.pos++
	if isNewline(h) {
		t.line++
		t.column = 0
		return
	}
	t.column++
}

// push appends the current grapheme to the pool.
func (t *tokenizer) push(h string) {
	if t.pool.Len() == 0 {
		t.poolStart = t.here()
	}
	t.pool.WriteString(h)
	t.advance()
}

// flush emits the pool as a token of the given kind.
func (t *tokenizer) flush(kind token.Kind) {
	if t.pool.Len() == 0 {
		return
	}
	t.tokens = append(t.tokens, token.Token{
		Kind:  kind,
		Value: t.pool.String(),
		Span:  token.Span{Start: t.poolStart, End: t.here()},
	})
	t.pool.Reset()
}

// symbol flushes the pool and emits the current grapheme as kind.
func (t *tokenizer) symbol(kind token.Kind) {
	t.flush(token.Text)
	start := t.here()
	h := t.graphemes[t.pos]
	t.advance()
	t.tokens = append(t.tokens, token.Token{
		Kind:  kind,
		Value: h,
		Span:  token.Span{Start: start, End: t.here()},
	})
}
