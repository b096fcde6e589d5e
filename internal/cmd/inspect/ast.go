package inspect

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/project"
	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/compiler"
	"github.com/open-cli-collective/brack/pkg/expander"
)

type astOptions struct {
	inspectOptions
	expand     bool
	configPath string
}

// NewCmdAST creates the inspect ast command.
func NewCmdAST() *cobra.Command {
	opts := &astOptions{}

	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the abstract syntax tree of a document",
		Long: `Print the abstract syntax tree. Diagnostics found while building it
are listed after the tree.

With --expand the configured plugins are loaded and macros are expanded
first, showing the tree the code generator would see.`,
		Example: `  brack inspect ast index.[]
  brack inspect ast index.[] --expand -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.fromFlags(cmd)
			opts.configPath, _ = cmd.Flags().GetString("config")
			return runAST(cmd.Context(), args[0], opts, nil)
		},
	}

	cmd.Flags().BoolVar(&opts.expand, "expand", false, "Expand macros with the configured plugins")

	return cmd
}

func runAST(ctx context.Context, path string, opts *astOptions, host expander.MacroCaller) error {
	renderer, err := opts.renderer()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	a, src, err := analyze(path)
	if err != nil {
		return err
	}

	root := a.AST
	if opts.expand {
		if len(a.Diagnostics) > 0 {
			return &compiler.DiagnosticsError{Path: path, Diagnostics: a.Diagnostics}
		}
		if host == nil {
			proj, err := project.Load(opts.configPath)
			if err != nil {
				return err
			}
			h, err := proj.NewHost(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close(ctx) }()
			host = h
		}
		if root, err = expander.Expand(ctx, root, host); err != nil {
			return fmt.Errorf("%s:%w", path, err)
		}
	}

	if renderer.Format() == view.FormatJSON {
		return renderer.RenderJSON(root)
	}

	fmt.Fprint(opts.out, ast.Dump(root))
	if len(a.Diagnostics) > 0 {
		fmt.Fprintln(opts.out)
		return renderer.RenderDiagnostics(view.FileDiagnostics{Path: path, Source: src, Diagnostics: a.Diagnostics})
	}
	return nil
}
