// Package build provides the build command for brack.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/open-cli-collective/brack/internal/project"
	"github.com/open-cli-collective/brack/internal/view"
	"github.com/open-cli-collective/brack/pkg/compiler"
	"github.com/open-cli-collective/brack/pkg/md"
)

// Target formats accepted by --to.
const (
	TargetHTML     = "html"
	TargetMarkdown = "markdown"
)

// Host is a plugin host owned by a single file's build.
type Host interface {
	compiler.Host
	Close(ctx context.Context) error
}

// HostFactory creates the plugin host for one build.
type HostFactory func(ctx context.Context) (Host, error)

type buildOptions struct {
	files      []string
	stdout     bool
	to         string
	jobs       int
	failFast   bool
	configPath string
	output     string
	noColor    bool
	out        io.Writer
}

// NewCmdBuild creates the build command.
func NewCmdBuild() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Compile documents",
		Long: `Compile .[] documents with the plugins configured in brack.yml.

Without arguments every document under source_dir is built and written
to output_dir, keeping the directory layout. Each document is compiled
with its own plugin instances, so documents build in parallel.`,
		Example: `  # Build the whole project
  brack build

  # Build one file and print the result
  brack build docs/index.[] --stdout

  # Convert the output to markdown
  brack build --to markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = args
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.out = cmd.OutOrStdout()
			return runBuild(cmd.Context(), opts, nil)
		},
	}

	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Write output to stdout instead of output_dir")
	cmd.Flags().StringVar(&opts.to, "to", TargetHTML, "Output format: html, markdown")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "Maximum number of documents built at once")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first document that fails")

	return cmd
}

type buildResult struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`

	src  []byte
	text string
	err  error
}

func runBuild(ctx context.Context, opts *buildOptions, newHost HostFactory) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	ext, err := extension(opts.to)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}

	proj, err := project.Load(opts.configPath)
	if err != nil {
		return err
	}
	if newHost == nil {
		newHost = func(ctx context.Context) (Host, error) {
			return proj.NewHost(ctx)
		}
	}

	files := opts.files
	if len(files) == 0 {
		if files, err = proj.Sources(); err != nil {
			return err
		}
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(opts.out)

	if len(files) == 0 {
		renderer.RenderText("No source files found.")
		return nil
	}

	results := make([]*buildResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for i, file := range files {
		res := &buildResult{Source: file}
		results[i] = res
		g.Go(func() error {
			res.src, res.text, res.err = buildFile(gctx, file, opts.to, newHost)
			if res.err != nil && opts.failFast {
				return res.err
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, res := range results {
		if res.err != nil {
			failed++
			res.Error = res.err.Error()
			continue
		}
		if opts.stdout {
			continue
		}
		res.Output = proj.OutputPath(res.Source, ext)
		if err := writeOutput(res.Output, res.text); err != nil {
			failed++
			res.err = err
			res.Error = err.Error()
			res.Output = ""
		}
	}

	report(renderer, opts, results)

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed to build", failed, len(files))
	}
	return nil
}

func buildFile(ctx context.Context, path, to string, newHost HostFactory) ([]byte, string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read source file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return src, "", err
	}

	start := time.Now()
	host, err := newHost(ctx)
	if err != nil {
		return src, "", err
	}
	defer func() {
		if err := host.Close(ctx); err != nil {
			log.Printf("WARN: failed to close plugins for %s: %v", path, err)
		}
	}()

	res, err := compiler.Compile(ctx, path, src, host)
	if err != nil {
		return src, "", err
	}

	out := res.Output
	if to == TargetMarkdown {
		if out, err = md.FromHTML(out); err != nil {
			return src, "", fmt.Errorf("failed to convert %s to markdown: %w", path, err)
		}
	}

	log.Printf("DEBUG: built %s in %s", path, time.Since(start).Round(time.Microsecond))
	return src, out, nil
}

func writeOutput(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func report(renderer *view.Renderer, opts *buildOptions, results []*buildResult) {
	if renderer.Format() == view.FormatJSON && !opts.stdout {
		_ = renderer.RenderJSON(results)
		return
	}

	for _, res := range results {
		var diagErr *compiler.DiagnosticsError
		switch {
		case errors.As(res.err, &diagErr):
			_ = renderer.RenderDiagnostics(view.FileDiagnostics{Path: res.Source, Source: res.src, Diagnostics: diagErr.Diagnostics})
		case res.err != nil:
			renderer.RenderBuildError(res.Source, res.src, res.err)
		case opts.stdout:
			fmt.Fprint(opts.out, res.text)
		default:
			renderer.Success(fmt.Sprintf("%s -> %s", res.Source, res.Output))
		}
	}
}

func extension(to string) (string, error) {
	switch to {
	case "", TargetHTML:
		return ".html", nil
	case TargetMarkdown:
		return ".md", nil
	}
	return "", fmt.Errorf("invalid target %q (valid: %s, %s)", to, TargetHTML, TargetMarkdown)
}
