// Package check provides the check command for brack.
package check

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/project"
	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/compiler"
)

type checkOptions struct {
	files      []string
	configPath string
	output     string
	noColor    bool
	out        io.Writer
}

// NewCmdCheck creates the check command.
func NewCmdCheck() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report syntax problems without building",
		Long: `Run the front end (tokenize, parse, transform) over documents and
report every diagnostic. No plugin is loaded.

Without arguments every document under source_dir in brack.yml is checked.
The command fails when any diagnostic is found.`,
		Example: `  # Check the whole project
  brack check

  # Check one file, machine readable
  brack check index.[] -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = args
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.out = cmd.OutOrStdout()
			return runCheck(opts)
		},
	}

	return cmd
}

func runCheck(opts *checkOptions) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}

	files := opts.files
	if len(files) == 0 {
		proj, err := project.Load(opts.configPath)
		if err != nil {
			return err
		}
		if files, err = proj.Sources(); err != nil {
			return err
		}
	}

	var (
		reports []view.FileDiagnostics
		total   int
	)
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}
		a, err := compiler.Analyze(file, src)
		if err != nil {
			return err
		}
		reports = append(reports, view.FileDiagnostics{Path: file, Source: src, Diagnostics: a.Diagnostics})
		total += len(a.Diagnostics)
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(opts.out)

	if err := renderer.RenderDiagnostics(reports...); err != nil {
		return err
	}
	if total > 0 {
		return fmt.Errorf("found %d problem(s) in %d file(s)", total, len(files))
	}
	if renderer.Format() == view.FormatTable {
		renderer.Success(fmt.Sprintf("No problems found in %d file(s)", len(files)))
	}
	return nil
}
