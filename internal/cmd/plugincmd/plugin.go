// Package plugincmd provides plugin inspection commands.
package plugincmd

import (
	"github.com/spf13/cobra"
)

// NewCmdPlugin creates the plugin command.
func NewCmdPlugin() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plugin",
		Aliases: []string{"plugins"},
		Short:   "Inspect configured plugins",
		Long:    `Commands for looking at the plugins listed in brack.yml.`,
	}

	cmd.AddCommand(NewCmdList())

	return cmd
}
