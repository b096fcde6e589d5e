package builtin

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/plugin"
)

var stdMetadata = []plugin.Metadata{
	{CommandName: "*", CallName: "inline_bold", ArgumentTypes: args("text", plugin.Inline), ReturnType: plugin.Inline},
	{CommandName: "/", CallName: "inline_italic", ArgumentTypes: args("text", plugin.Inline), ReturnType: plugin.Inline},
	{CommandName: "@", CallName: "inline_anchor", ArgumentTypes: args("text", plugin.Inline, "url", plugin.Inline), ReturnType: plugin.Inline},
	{CommandName: "*", CallName: "block_heading1", ArgumentTypes: args("text", plugin.Inline), ReturnType: plugin.Block},
	{CommandName: "**", CallName: "block_heading2", ArgumentTypes: args("text", plugin.Inline), ReturnType: plugin.Block},
	{CommandName: "-", CallName: "block_list", ArgumentTypes: args("items", plugin.Array(plugin.Inline)), ReturnType: plugin.Block},
	{CommandName: "quote", CallName: "block_quote", ArgumentTypes: args("text", plugin.Inline, "cite", plugin.Option(plugin.Inline)), ReturnType: plugin.Block},
	{CommandName: "comment", CallName: "macro_comment", ReturnType: plugin.AST},
	{CommandName: "document", CallName: "document", ArgumentTypes: args("body", plugin.Block), ReturnType: plugin.Block},
	{CommandName: "text", CallName: "text", ArgumentTypes: args("text", plugin.Inline), ReturnType: plugin.Inline},
}

// Std is the reference HTML plugin. Arguments arrive already rendered, so
// only attribute values are escaped; enable its text hook to escape
// source text.
func Std() *plugin.Native {
	return plugin.NewNative(stdMetadata, map[string]plugin.Func{
		"inline_bold":    plugin.TextFunc(wrap("b")),
		"inline_italic":  plugin.TextFunc(wrap("i")),
		"inline_anchor":  plugin.TextFunc(anchor),
		"block_heading1": plugin.TextFunc(wrap("h1")),
		"block_heading2": plugin.TextFunc(wrap("h2")),
		"block_list":     plugin.TextFunc(list),
		"block_quote":    plugin.TextFunc(quote),
		"macro_comment":  plugin.MacroFunc(comment),
		"document":       plugin.TextFunc(document),
		"text":           plugin.TextFunc(escapeText),
	})
}

func args(pairs ...any) []plugin.Argument {
	out := make([]plugin.Argument, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, plugin.Argument{Name: pairs[i].(string), Type: pairs[i+1].(plugin.Type)})
	}
	return out
}

// arity reports an error when fewer than n values were passed.
func arity(a []plugin.Value, n int) error {
	if len(a) < n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(a))
	}
	return nil
}

func wrap(tag string) func([]plugin.Value) (string, error) {
	return func(a []plugin.Value) (string, error) {
		if err := arity(a, 1); err != nil {
			return "", err
		}
		return "<" + tag + ">" + a[0].Text + "</" + tag + ">", nil
	}
}

func anchor(a []plugin.Value) (string, error) {
	if err := arity(a, 2); err != nil {
		return "", err
	}
	return `<a href="` + html.EscapeString(a[1].Text) + `">` + a[0].Text + "</a>", nil
}

func list(a []plugin.Value) (string, error) {
	if err := arity(a, 1); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, item := range a[0].Array {
		sb.WriteString("<li>")
		sb.WriteString(item)
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String(), nil
}

func quote(a []plugin.Value) (string, error) {
	if err := arity(a, 2); err != nil {
		return "", err
	}
	if cite := a[1].Option; cite != nil {
		return `<blockquote cite="` + html.EscapeString(*cite) + `">` + a[0].Text + "</blockquote>", nil
	}
	return "<blockquote>" + a[0].Text + "</blockquote>", nil
}

func document(a []plugin.Value) (string, error) {
	if err := arity(a, 1); err != nil {
		return "", err
	}
	return "<!DOCTYPE html>\n<html>\n<body>\n" + a[0].Text + "\n</body>\n</html>\n", nil
}

func escapeText(a []plugin.Value) (string, error) {
	if err := arity(a, 1); err != nil {
		return "", err
	}
	return html.EscapeString(a[0].Text), nil
}

// comment replaces the invoking form with empty text.
func comment(root *ast.Node, id string) (*ast.Node, error) {
	node := ast.Find(root, id)
	if node == nil {
		return nil, errors.New("invoking node not found in document")
	}
	return ast.NewLeaf(ast.Text, "", node.Span), nil
}
