// Package root provides the root command for the brack CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/cmd/build"
	"github.com/open-cli-collective/brack/internal/cmd/check"
	"github.com/open-cli-collective/brack/internal/cmd/completion"
	"github.com/open-cli-collective/brack/internal/cmd/configcmd"
	initcmd "github.com/open-cli-collective/brack/internal/cmd/init"
	"github.com/open-cli-collective/brack/internal/cmd/inspect"
	"github.com/open-cli-collective/brack/internal/cmd/plugincmd"
	"github.com/open-cli-collective/brack/internal/logging"
	"github.com/open-cli-collective/brack/internal/version"
)

// NewCmdRoot creates the root command for brack.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brack",
		Short: "A compiler for bracket markup documents",
		Long: `brack compiles .[] documents written in bracket markup.

Every [module.command ...], {module.command ...} and <module.command ...>
form is dispatched to a plugin, either a WASM module or a builtin, listed
in brack.yml. Plugins decide what the output looks like.

Get started by running: brack init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logging.Setup(cmd.ErrOrStderr(), verbose)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ./brack.yml or $BRACK_CONFIG)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, plain")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "log plugin loading and build timings")

	// Set version template
	cmd.SetVersionTemplate("brack version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(build.NewCmdBuild())
	cmd.AddCommand(check.NewCmdCheck())
	cmd.AddCommand(inspect.NewCmdInspect())
	cmd.AddCommand(plugincmd.NewCmdPlugin())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
