// Package config holds the settings shared by the cargomenu CLI and TUI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/dispatch"
)

// DirName is the per-workspace settings directory.
const DirName = ".cargomenu"

// Config captures every knob of a cargomenu session. Workspace and ConfigPath
// come from the command line only.
type Config struct {
	Workspace  string `yaml:"-"`
	ConfigPath string `yaml:"-"`

	CargoPath    string `yaml:"cargo_path"`
	Shell        string `yaml:"shell"`
	OutputNaming string `yaml:"output_naming"`
	OutputDir    string `yaml:"output_dir"`
	LogPath      string `yaml:"log_path"`
	EventsPath   string `yaml:"events_path,omitempty"`
	// Env entries (KEY=VALUE) are added to every cargo process.
	Env []string `yaml:"env,omitempty"`
	// MetadataTimeout bounds each cargo metadata run; zero means no limit.
	MetadataTimeout time.Duration `yaml:"metadata_timeout,omitempty"`
	// DefaultPostSeparator applies to subcommands without their own entry in
	// PostSeparator. Nil means the built-in set.
	DefaultPostSeparator []string            `yaml:"default_post_separator,omitempty"`
	PostSeparator        map[string][]string `yaml:"post_separator,omitempty"`
}

// DefaultConfig roots every path in the current working directory.
func DefaultConfig() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		Workspace:    cwd,
		ConfigPath:   filepath.Join(cwd, DirName, "config.yaml"),
		CargoPath:    cargo.DefaultExecutable,
		Shell:        dispatch.DefaultShell,
		OutputNaming: dispatch.NamingPerCommand,
		OutputDir:    filepath.Join(cwd, DirName, "output"),
		LogPath:      filepath.Join(cwd, DirName, "cargomenu.log"),
	}
}

// Normalize makes every path absolute, fills missing defaults and rejects
// unknown naming strategies.
func (c *Config) Normalize() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	abs, err := filepath.Abs(c.Workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	c.Workspace = abs
	c.ConfigPath = c.resolve(c.ConfigPath, filepath.Join(DirName, "config.yaml"))
	c.OutputDir = c.resolve(c.OutputDir, filepath.Join(DirName, "output"))
	c.LogPath = c.resolve(c.LogPath, filepath.Join(DirName, "cargomenu.log"))
	if c.EventsPath != "" {
		c.EventsPath = c.resolve(c.EventsPath, "")
	}
	if c.CargoPath == "" {
		c.CargoPath = cargo.DefaultExecutable
	}
	if c.Shell == "" {
		c.Shell = dispatch.DefaultShell
	}
	if c.OutputNaming == "" {
		c.OutputNaming = dispatch.NamingPerCommand
	}
	if _, err := dispatch.LookupNaming(c.OutputNaming); err != nil {
		return err
	}
	if c.MetadataTimeout < 0 {
		return fmt.Errorf("metadata timeout must not be negative: %s", c.MetadataTimeout)
	}
	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") || strings.HasPrefix(kv, "=") {
			return fmt.Errorf("env entry %q must be KEY=VALUE", kv)
		}
	}
	return nil
}

func (c *Config) resolve(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Workspace, path)
	}
	return filepath.Clean(path)
}

// Naming returns the configured output naming strategy.
func (c Config) Naming() (dispatch.Naming, error) {
	return dispatch.LookupNaming(c.OutputNaming)
}

// Separator builds the post-separator sets.
func (c Config) Separator() *cargo.Separator {
	fallback := c.DefaultPostSeparator
	if fallback == nil {
		fallback = cargo.DefaultPostSeparator
	}
	return cargo.NewSeparator(fallback, c.PostSeparator)
}

// MergeFile overlays the values found in the YAML file at path. Keys in keep
// were set explicitly on the command line and win over the file. A missing
// file is not an error.
func (c *Config) MergeFile(path string, keep map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	overlay := func(key string, dst *string, value string) {
		if value != "" && !keep[key] {
			*dst = value
		}
	}
	overlay("cargo_path", &c.CargoPath, file.CargoPath)
	overlay("shell", &c.Shell, file.Shell)
	overlay("output_naming", &c.OutputNaming, file.OutputNaming)
	overlay("output_dir", &c.OutputDir, file.OutputDir)
	overlay("log_path", &c.LogPath, file.LogPath)
	overlay("events_path", &c.EventsPath, file.EventsPath)
	if file.MetadataTimeout != 0 && !keep["metadata_timeout"] {
		c.MetadataTimeout = file.MetadataTimeout
	}
	if file.Env != nil && !keep["env"] {
		c.Env = file.Env
	}
	if file.DefaultPostSeparator != nil && !keep["default_post_separator"] {
		c.DefaultPostSeparator = file.DefaultPostSeparator
	}
	if len(file.PostSeparator) > 0 && !keep["post_separator"] {
		if c.PostSeparator == nil {
			c.PostSeparator = map[string][]string{}
		}
		for sub, flags := range file.PostSeparator {
			c.PostSeparator[sub] = flags
		}
	}
	return nil
}

// Save writes the file-backed fields to path.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
