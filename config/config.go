// Package config loads the flags recognized by the editing engines from a
// YAML file, applying the documented defaults when a value is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultMaxFileSize is the default max size, in bytes, for a file handed
// to one of the edit engines. Files strictly larger are rejected.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10 MiB

// Config holds every flag the edit engines recognize, plus the roots they
// resolve paths against.
type Config struct {
	Path struct {
		// AllowPathTraversal disables PathGuard's cwd/workspace nesting
		// check. Default false.
		AllowPathTraversal bool `yaml:"allow_path_traversal"`
		// AllowSymlinks disables PathGuard's symlink rejection. Default
		// false.
		AllowSymlinks bool `yaml:"allow_symlinks"`
		// WorkspaceRoot is the root that MEMORY.md and memory/-prefixed
		// paths are redirected under.
		WorkspaceRoot string `yaml:"workspace_root"`
	} `yaml:"path"`

	File struct {
		// MaxFileSize is the largest file, in bytes, any edit engine will
		// read or write. Zero means DefaultMaxFileSize.
		MaxFileSize int64 `yaml:"max_file_size"`
	} `yaml:"file"`

	// Hashline values are loaded and defaulted here, but no tool or CLI
	// command in this module reads them: the hashline_edit tool takes
	// autocorrect per call from its own input.
	Hashline struct {
		// Autocorrect is the hashline_autocorrect flag, selecting
		// HashlineEngine's three autocorrect passes (restore stripped
		// indentation, strip boundary echo, undo line reflow). Default
		// false.
		Autocorrect bool `yaml:"hashline_autocorrect"`
		// MaxChunkLines bounds the streaming formatter's chunk size in
		// lines. Zero means unbounded.
		MaxChunkLines int `yaml:"max_chunk_lines"`
		// MaxChunkBytes bounds the streaming formatter's chunk size in
		// bytes. Zero means unbounded.
		MaxChunkBytes int `yaml:"max_chunk_bytes"`
		// StartLine is the line number the formatter starts counting
		// from. Zero means 1.
		StartLine int `yaml:"start_line"`
	} `yaml:"hashline"`
}

// Load reads and parses the YAML config file at path, filling in documented
// defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if cfg.Path.WorkspaceRoot != "" {
		abs, err := filepath.Abs(cfg.Path.WorkspaceRoot)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace_root: %w", err)
		}
		cfg.Path.WorkspaceRoot = abs
	}
	return &cfg, nil
}

// Default returns a Config populated entirely with the documented defaults.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.File.MaxFileSize == 0 {
		c.File.MaxFileSize = DefaultMaxFileSize
	}
	if c.Hashline.StartLine == 0 {
		c.Hashline.StartLine = 1
	}
}
