package configcmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/project"
)

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Validate the manifest and load its plugins",
		Long: `Validate brack.yml, check that the source directory exists and load
every configured plugin, reporting how many commands each exports.`,
		Example: `  # Test the configuration
  brack config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runTest(cmd.Context(), configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runTest(ctx context.Context, configPath string, noColor bool, w io.Writer) error {
	if noColor {
		color.NoColor = true
	}
	if ctx == nil {
		ctx = context.Background()
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "Testing configuration %s...\n", configPath)

	proj, err := project.Load(configPath)
	if err != nil {
		_, _ = red.Fprintln(w, "✗ Invalid configuration:", err)
		return err
	}
	_, _ = green.Fprintln(w, "✓ Manifest is valid")

	files, err := proj.Sources()
	if err != nil {
		_, _ = red.Fprintln(w, "✗ Source directory unreadable:", err)
		fmt.Fprintln(w, "\nCheck source_dir with: brack config show")
		return err
	}
	_, _ = green.Fprintf(w, "✓ Found %d document(s) in %s\n", len(files), proj.SourceDir())

	host, err := proj.NewHost(ctx)
	if err != nil {
		_, _ = red.Fprintln(w, "✗ Plugin loading failed:", err)
		return fmt.Errorf("plugin loading failed: %w", err)
	}
	defer func() { _ = host.Close(ctx) }()

	for _, p := range host.Plugins() {
		_, _ = green.Fprintf(w, "✓ Plugin %s loaded (%d commands)\n", p.Name, len(p.Commands()))
	}

	return nil
}
