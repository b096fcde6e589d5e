package builtin

import (
	"fmt"

	"github.com/open-cli-collective/brack/pkg/md"
	"github.com/open-cli-collective/brack/pkg/plugin"
)

var markdownMetadata = []plugin.Metadata{
	{CommandName: "render", CallName: "inline_render", ArgumentTypes: args("source", plugin.Inline), ReturnType: plugin.Inline},
	{CommandName: "render", CallName: "block_render", ArgumentTypes: args("source", plugin.Inline), ReturnType: plugin.Block},
}

// Markdown renders its argument as markdown through goldmark.
func Markdown() *plugin.Native {
	return plugin.NewNative(markdownMetadata, map[string]plugin.Func{
		"inline_render": plugin.TextFunc(func(a []plugin.Value) (string, error) {
			if err := arity(a, 1); err != nil {
				return "", err
			}
			out, err := md.ToInlineHTML(a[0].Text)
			if err != nil {
				return "", fmt.Errorf("failed to render markdown: %w", err)
			}
			return out, nil
		}),
		"block_render": plugin.TextFunc(func(a []plugin.Value) (string, error) {
			if err := arity(a, 1); err != nil {
				return "", err
			}
			out, err := md.ToHTML([]byte(a[0].Text))
			if err != nil {
				return "", fmt.Errorf("failed to render markdown: %w", err)
			}
			return out, nil
		}),
	})
}
