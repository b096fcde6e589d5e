package plugincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/project"
	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/plugin"
)

type listOptions struct {
	configPath string
	output     string
	noColor    bool
	out        io.Writer
}

// NewCmdList creates the plugin list command.
func NewCmdList() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List commands and hooks of the configured plugins",
		Long: `Load every plugin from brack.yml and list the commands it exports
with their form, kind and signature, followed by the hooks it provides.`,
		Example: `  # List all commands
  brack plugin list

  # Output as JSON
  brack plugin list -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.out = cmd.OutOrStdout()
			return runList(cmd.Context(), opts, nil)
		},
	}

	return cmd
}

// Lister exposes the registered plugins.
type Lister interface {
	Plugins() []*plugin.Plugin
}

func runList(ctx context.Context, opts *listOptions, host Lister) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.out == nil {
		opts.out = os.Stdout
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

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(opts.out)

	plugins := host.Plugins()
	if len(plugins) == 0 {
		renderer.RenderText("No plugins configured.")
		return nil
	}

	headers := []string{"PLUGIN", "KIND", "FORM", "SIGNATURE"}
	var rows [][]string
	for _, p := range plugins {
		for _, md := range p.Commands() {
			rows = append(rows, []string{
				p.Name,
				kindName(md.ReturnType.Kind),
				form(p.Name, md),
				view.Truncate(md.Signature(), 60),
			})
		}
		for _, h := range plugin.Hooks() {
			if p.Features.Has(h) {
				rows = append(rows, []string{p.Name, "hook", h.String(), fmt.Sprintf("%s hook -> %s", h, h.Kind())})
			}
		}
	}

	renderer.RenderTable(headers, rows)
	return nil
}

func kindName(k plugin.TypeKind) string {
	switch k {
	case plugin.TInline:
		return "inline"
	case plugin.TBlock:
		return "block"
	case plugin.TAST:
		return "macro"
	}
	return k.String()
}

// form shows how the command is written in a document.
func form(module string, md plugin.Metadata) string {
	head := module + "." + md.CommandName
	switch md.ReturnType.Kind {
	case plugin.TBlock:
		return "{" + head + "}"
	case plugin.TAST:
		return "<" + head + ">"
	}
	return "[" + head + "]"
}
