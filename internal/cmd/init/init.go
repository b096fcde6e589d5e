// Package init provides the init command for brack.
package init

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/brack/internal/config"
	"github.com/open-cli-collective/brack/internal/project"
)

// starterDoc is written to index.[] when the std plugin is enabled.
const starterDoc = `{std.* Welcome}

This project was created by [std.* brack init].
Edit this file, then run [std./ brack build].
`

type initOptions struct {
	configPath string
	name       string
	sourceDir  string
	outputDir  string
	withStd    bool
	starter    bool
	noInput    bool
	force      bool
	out        io.Writer
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a brack project",
		Long: `Initialize a brack project in the current directory.

This command will guide you through naming the project, choosing where
documents live and where output is written, and enabling the builtin
std plugin. The configuration is saved to brack.yml.`,
		Example: `  # Interactive setup
  brack init

  # Non-interactive setup
  brack init --name my-site --source-dir src --no-input`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.out = cmd.OutOrStdout()
			return runInit(opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Project name")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", config.DefaultSourceDir, "Directory holding .[] documents")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", config.DefaultOutputDir, "Directory build output is written to")
	cmd.Flags().BoolVar(&opts.withStd, "std", true, "Enable the builtin std plugin")
	cmd.Flags().BoolVar(&opts.starter, "starter", true, "Create a starter index.[] (requires --std)")
	cmd.Flags().BoolVar(&opts.noInput, "no-input", false, "Do not prompt; use flag values")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing brack.yml")

	return cmd
}

func runInit(opts *initOptions) error {
	if opts.out == nil {
		opts.out = os.Stdout
	}
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !opts.force {
		if opts.noInput {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(opts.out, "Initialization cancelled.")
			return nil
		}
	}

	if !opts.noInput {
		if err := prompt(opts); err != nil {
			return err
		}
	}

	cfg := &config.Config{
		Name:      opts.name,
		SourceDir: opts.sourceDir,
		OutputDir: opts.outputDir,
	}
	if opts.withStd {
		cfg.Plugins = append(cfg.Plugins, config.Plugin{Name: "std", Builtin: "std"})
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Save configuration
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(opts.out, "Configuration saved to %s\n", configPath)

	if opts.withStd && opts.starter {
		proj := &project.Project{Config: cfg, ConfigPath: configPath, BaseDir: filepath.Dir(configPath)}
		path, err := writeStarter(proj)
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(opts.out, "Starter document written to %s\n", path)
		}
	}

	fmt.Fprintln(opts.out, "\nYou're all set! Try running:")
	fmt.Fprintln(opts.out, "  brack check")
	fmt.Fprintln(opts.out, "  brack build")

	return nil
}

func prompt(opts *initOptions) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Placeholder("my-site").
				Value(&opts.name).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("name is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Source directory").
				Description("Where your .[] documents live").
				Value(&opts.sourceDir),

			huh.NewInput().
				Title("Output directory").
				Description("Where brack build writes its output").
				Value(&opts.outputDir),

			huh.NewConfirm().
				Title("Enable the builtin std plugin?").
				Description("Bold, italic, links, headings, lists and quotes as HTML").
				Value(&opts.withStd),
		),
	)

	return form.Run()
}

// writeStarter creates index.[] in the source directory unless the
// directory already holds documents. It returns the written path, or ""
// when nothing was written.
func writeStarter(proj *project.Project) (string, error) {
	dir := proj.SourceDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create source directory: %w", err)
	}

	existing, err := proj.Sources()
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", nil
	}

	path := filepath.Join(dir, "index"+project.SourceExt)
	if err := os.WriteFile(path, []byte(starterDoc), 0644); err != nil {
		return "", fmt.Errorf("failed to write starter document: %w", err)
	}
	return path, nil
}
