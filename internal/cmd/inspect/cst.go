package inspect

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/cst"
)

// NewCmdCST creates the inspect cst command.
func NewCmdCST() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "cst <file>",
		Short: "Print the concrete syntax tree of a document",
		Long: `Print the concrete syntax tree, one node per line. The tree keeps
every token, so it also shows input the transformer later rejects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.fromFlags(cmd)
			return runCST(args[0], opts)
		},
	}

	return cmd
}

func runCST(path string, opts *inspectOptions) error {
	renderer, err := opts.renderer()
	if err != nil {
		return err
	}
	if renderer.Format() == view.FormatJSON {
		return errors.New("the cst has no json form; use 'brack inspect ast -o json'")
	}
	a, _, err := analyze(path)
	if err != nil {
		return err
	}

	fmt.Fprint(opts.out, cst.Dump(a.CST))
	return nil
}
