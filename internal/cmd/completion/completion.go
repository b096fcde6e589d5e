// Package completion provides the shell completion command.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var shells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error {
		return root.GenBashCompletionV2(w, true)
	},
	"zsh": func(root *cobra.Command, w io.Writer) error {
		return root.GenZshCompletion(w)
	},
	"fish": func(root *cobra.Command, w io.Writer) error {
		return root.GenFishCompletion(w, true)
	},
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// NewCmdCompletion creates the completion command.
func NewCmdCompletion() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for brack.

To load completions in your current shell session:

  source <(brack completion bash)        # bash
  source <(brack completion zsh)         # zsh
  brack completion fish | source         # fish
  brack completion powershell | Out-String | Invoke-Expression

To load completions for every new session, write the script to your
shell's completion directory or profile.`,
		Example: `  # Install permanently (Linux, bash)
  brack completion bash | sudo tee /etc/bash_completion.d/brack > /dev/null

  # Install permanently (zsh)
  brack completion zsh > "${fpath[1]}/_brack"`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := shells[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell %q", args[0])
			}
			return gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}
