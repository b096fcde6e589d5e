package configcmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/config"
	"github.com/open-cli-collective/brack/pkg/plugin"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the effective brack configuration with the source of each value.`,
		Example: `  # Show current config
  brack config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runShow(configPath string, noColor bool, w io.Writer) error {
	if noColor {
		color.NoColor = true
	}

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	// Load full config with env overrides and defaults
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value, fileValue string, envVar string) {
		_, _ = bold.Fprintf(w, "%-12s", label+":")
		if value == "" {
			_, _ = dim.Fprintln(w, "-")
			return
		}
		fmt.Fprint(w, value)

		// Determine source
		source := "default"
		switch {
		case envVar != "" && os.Getenv(envVar) != "" && os.Getenv(envVar) == value:
			source = envVar
		case fileErr == nil && fileValue == value:
			source = "config"
		}

		_, _ = dim.Fprintf(w, "  (source: %s)\n", source)
	}

	printField("Name", cfg.Name, fileCfg.Name, "")
	printField("Backend", cfg.Backend, fileCfg.Backend, "BRACK_BACKEND")
	printField("Source Dir", cfg.SourceDir, fileCfg.SourceDir, "BRACK_SOURCE_DIR")
	printField("Output Dir", cfg.OutputDir, fileCfg.OutputDir, "BRACK_OUTPUT_DIR")

	_, _ = bold.Fprintf(w, "%-12s", "Plugins:")
	if len(cfg.Plugins) == 0 {
		_, _ = dim.Fprintln(w, "-")
	} else {
		fmt.Fprintln(w)
		for _, p := range cfg.Plugins {
			origin := p.Path
			if p.Builtin != "" {
				origin = "builtin:" + p.Builtin
			}
			fmt.Fprintf(w, "  %s (%s)", p.Name, origin)
			if hooks := hookNames(p); hooks != "" {
				_, _ = dim.Fprintf(w, "  hooks: %s", hooks)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	_, _ = dim.Fprintf(w, "Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Fprintln(w, "(file not found)")
	}

	return nil
}

func hookNames(p config.Plugin) string {
	var names []string
	for _, h := range plugin.Hooks() {
		if p.Has(h) {
			names = append(names, h.String())
		}
	}
	return strings.Join(names, ", ")
}
