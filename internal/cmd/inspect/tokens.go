package inspect

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/token"
)

// NewCmdTokens creates the inspect tokens command.
func NewCmdTokens() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "List the tokens of a document",
		Example: `  brack inspect tokens index.[]
  brack inspect tokens index.[] -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.fromFlags(cmd)
			return runTokens(args[0], opts)
		},
	}

	return cmd
}

type tokenJSON struct {
	Kind  string     `json:"kind"`
	Value string     `json:"value,omitempty"`
	Span  token.Span `json:"span"`
}

func runTokens(path string, opts *inspectOptions) error {
	renderer, err := opts.renderer()
	if err != nil {
		return err
	}
	a, _, err := analyze(path)
	if err != nil {
		return err
	}

	if renderer.Format() == view.FormatJSON {
		out := make([]tokenJSON, 0, len(a.Tokens))
		for _, tok := range a.Tokens {
			out = append(out, tokenJSON{Kind: tok.Kind.String(), Value: tok.Value, Span: tok.Span})
		}
		return renderer.RenderJSON(out)
	}

	headers := []string{"KIND", "VALUE", "SPAN"}
	rows := make([][]string, 0, len(a.Tokens))
	for _, tok := range a.Tokens {
		value := ""
		if tok.Kind != token.EOF {
			value = view.Truncate(strconv.Quote(tok.Value), 40)
		}
		rows = append(rows, []string{tok.Kind.String(), value, tok.Span.String()})
	}
	renderer.RenderTable(headers, rows)
	return nil
}
