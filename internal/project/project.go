// Package project resolves a brack.yml manifest into source files, output
// paths and a loaded plugin host.
package project

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/open-cli-collective/brack/internal/config"
	"github.com/open-cli-collective/brack/pkg/plugin"
)

// SourceExt is the file extension of brack documents.
const SourceExt = ".[]"

// Project is a validated manifest anchored at its directory.
type Project struct {
	Config     *config.Config
	ConfigPath string
	BaseDir    string
}

// Load reads the manifest at path, or at config.DefaultConfigPath when
// path is empty, and validates it.
func Load(path string) (*Project, error) {
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w (run 'brack init' to configure)", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w (run 'brack init' to configure)", err)
	}

	return &Project{Config: cfg, ConfigPath: path, BaseDir: filepath.Dir(path)}, nil
}

// SourceDir returns the source directory resolved against BaseDir.
func (p *Project) SourceDir() string {
	return p.resolve(p.Config.SourceDir)
}

// OutputDir returns the output directory resolved against BaseDir.
func (p *Project) OutputDir() string {
	return p.resolve(p.Config.OutputDir)
}

func (p *Project) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.BaseDir, dir)
}

// NewHost loads every configured plugin into a fresh host.
func (p *Project) NewHost(ctx context.Context) (*plugin.Host, error) {
	h := plugin.NewHost()
	if err := h.Load(ctx, p.Config.Descriptors(p.BaseDir)...); err != nil {
		_ = h.Close(ctx)
		return nil, err
	}
	return h, nil
}

// Sources lists the documents under the source directory in lexical
// order. Hidden directories and the output directory are skipped.
func (p *Project) Sources() ([]string, error) {
	root := p.SourceDir()
	out := filepath.Clean(p.OutputDir())

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || filepath.Clean(path) == out) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	log.Printf("DEBUG: found %d source file(s) under %s", len(files), root)
	return files, nil
}

// OutputPath maps a source file to its destination under the output
// directory, replacing the source extension with ext. Files outside the
// source directory are placed at the top of the output directory.
func (p *Project) OutputPath(source, ext string) string {
	rel, err := filepath.Rel(p.SourceDir(), source)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(source)
	}
	return filepath.Join(p.OutputDir(), strings.TrimSuffix(rel, SourceExt)+ext)
}
