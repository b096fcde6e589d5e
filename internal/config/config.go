// Package config loads and saves the brack.yml project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/brack/pkg/plugin"
	"github.com/open-cli-collective/brack/pkg/plugin/builtin"
)

// FileName is the manifest name looked up in the working directory.
const FileName = "brack.yml"

// Defaults applied by ApplyDefaults.
const (
	DefaultBackend   = "html"
	DefaultSourceDir = "."
	DefaultOutputDir = "out"
)

// Plugin is one plugin entry of the manifest. Exactly one of Path and
// Builtin is set.
type Plugin struct {
	Name            string `yaml:"name"`
	Path            string `yaml:"path,omitempty"`
	Builtin         string `yaml:"builtin,omitempty"`
	plugin.Features `yaml:",inline"`
}

// Config holds the project manifest.
type Config struct {
	Name      string   `yaml:"name"`
	Backend   string   `yaml:"backend,omitempty"`
	SourceDir string   `yaml:"source_dir,omitempty"`
	OutputDir string   `yaml:"output_dir,omitempty"`
	Plugins   []Plugin `yaml:"plugins,omitempty"`
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}

	seen := make(map[string]bool, len(c.Plugins))
	hookOwner := make(map[plugin.Hook]string)
	for i, p := range c.Plugins {
		if p.Name == "" {
			return fmt.Errorf("plugins[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("plugins[%d]: duplicate plugin name %q", i, p.Name)
		}
		seen[p.Name] = true

		switch {
		case p.Path == "" && p.Builtin == "":
			return fmt.Errorf("plugin %s: one of path or builtin is required", p.Name)
		case p.Path != "" && p.Builtin != "":
			return fmt.Errorf("plugin %s: path and builtin are mutually exclusive", p.Name)
		case p.Builtin != "" && !slices.Contains(builtin.Names(), p.Builtin):
			return fmt.Errorf("plugin %s: unknown builtin %q (available: %v)", p.Name, p.Builtin, builtin.Names())
		}

		for _, h := range plugin.Hooks() {
			if !p.Has(h) {
				continue
			}
			if owner, ok := hookOwner[h]; ok {
				return fmt.Errorf("plugin %s: %s_hook is already provided by %s", p.Name, h, owner)
			}
			hookOwner[h] = p.Name
		}
	}

	return nil
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	if dir := os.Getenv("BRACK_SOURCE_DIR"); dir != "" {
		c.SourceDir = dir
	}
	if dir := os.Getenv("BRACK_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if backend := os.Getenv("BRACK_BACKEND"); backend != "" {
		c.Backend = backend
	}
}

// Descriptors converts the plugin entries for plugin.Host.Load. Relative
// paths are resolved against baseDir, the manifest's directory.
func (c *Config) Descriptors(baseDir string) []plugin.Descriptor {
	descs := make([]plugin.Descriptor, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		d := plugin.Descriptor{Name: p.Name, Features: p.Features}
		if p.Builtin != "" {
			d.Open = builtin.Opener(p.Builtin)
		} else {
			d.Path = p.Path
			if !filepath.IsAbs(d.Path) {
				d.Path = filepath.Join(baseDir, d.Path)
			}
		}
		descs = append(descs, d)
	}
	return descs
}

// DefaultConfigPath returns BRACK_CONFIG when set, else brack.yml in the
// working directory.
func DefaultConfigPath() string {
	if path := os.Getenv("BRACK_CONFIG"); path != "" {
		return path
	}
	return FileName
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file, overrides it with
// environment variables and applies defaults. A missing file yields an
// empty config; any other read or parse error is returned.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}
