// Package inspect provides commands that dump the compiler's intermediate
// forms.
package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/compiler"
)

// NewCmdInspect creates the inspect command.
func NewCmdInspect() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show tokens, CST or AST of a document",
		Long:  `Commands for looking at what the front end makes of a document.`,
	}

	cmd.AddCommand(NewCmdTokens())
	cmd.AddCommand(NewCmdCST())
	cmd.AddCommand(NewCmdAST())

	return cmd
}

type inspectOptions struct {
	output  string
	noColor bool
	out     io.Writer
}

func (o *inspectOptions) fromFlags(cmd *cobra.Command) {
	o.output, _ = cmd.Flags().GetString("output")
	o.noColor, _ = cmd.Flags().GetBool("no-color")
	o.out = cmd.OutOrStdout()
}

func (o *inspectOptions) renderer() (*view.Renderer, error) {
	if err := view.ValidateFormat(o.output); err != nil {
		return nil, err
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	r := view.NewRenderer(view.Format(o.output), o.noColor)
	r.SetWriter(o.out)
	return r, nil
}

func analyze(path string) (*compiler.Analysis, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read source file: %w", err)
	}
	a, err := compiler.Analyze(path, src)
	if err != nil {
		return nil, nil, err
	}
	return a, src, nil
}
