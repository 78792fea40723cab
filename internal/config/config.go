// Package config holds the externally supplied, read-only run configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	ignore "github.com/sabhiram/go-gitignore"
)

// Config is the run configuration consumed by the indexing engine. It is
// loaded once, finalized, and treated as immutable afterwards.
type Config struct {
	// RootDir anchors relative-path display and ignore matching.
	RootDir string `toml:"root_dir"`

	// CompileCommands is the path to a compile_commands.json compilation
	// database enumerating translation units. When empty, translation units
	// are discovered by walking RootDir.
	CompileCommands string `toml:"compile_commands"`

	// IncludePaths are search paths reported to the frontend. Missing paths
	// are dropped with a warning during Finalize.
	IncludePaths []string `toml:"include_paths"`

	// IgnorePaths are gitignore-style patterns; declarations whose file
	// matches one are not indexed.
	IgnorePaths []string `toml:"ignore_paths"`

	// IgnoreNamespaces are substrings; declarations inside a namespace whose
	// name contains one are not indexed.
	IgnoreNamespaces []string `toml:"ignore_namespaces"`

	// IgnorePrivateMembers suppresses private members and private member
	// functions from the index.
	IgnorePrivateMembers bool `toml:"ignore_private_members"`

	// Limit caps how many translation units are processed. Zero means no
	// cap. Intended for bounded or debug runs.
	Limit int `toml:"limit"`

	// Jobs bounds the traversal worker pool. Zero means one worker per CPU.
	Jobs int `toml:"jobs"`

	matcher *ignore.GitIgnore
}

// Default returns a config rooted at root with no filters.
func Default(root string) *Config {
	c := &Config{RootDir: root}
	c.Finalize()
	return c
}

// Load reads a TOML config file. Relative paths in the file are resolved
// against the file's directory. The returned config is already finalized.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if c.RootDir == "" {
		c.RootDir = dir
	} else if !filepath.IsAbs(c.RootDir) {
		c.RootDir = filepath.Join(dir, c.RootDir)
	}
	if c.CompileCommands != "" && !filepath.IsAbs(c.CompileCommands) {
		c.CompileCommands = filepath.Join(dir, c.CompileCommands)
	}
	c.Finalize()
	return &c, nil
}

// Finalize compiles the ignore matcher and drops include paths that do not
// exist. Idempotent; must run before the config is handed to the engine.
func (c *Config) Finalize() {
	if len(c.IgnorePaths) > 0 {
		c.matcher = ignore.CompileIgnoreLines(c.IgnorePaths...)
	}
	kept := c.IncludePaths[:0]
	for _, p := range c.IncludePaths {
		if _, err := os.Stat(p); err != nil {
			slog.Warn("include path does not exist, proceeding without it", "path", p)
			continue
		}
		kept = append(kept, p)
	}
	c.IncludePaths = kept
}

// RelPath returns path relative to RootDir for display, falling back to the
// path unchanged when it cannot be made relative.
func (c *Config) RelPath(path string) string {
	if c.RootDir == "" {
		return path
	}
	rel, err := filepath.Rel(c.RootDir, path)
	if err != nil {
		return path
	}
	return rel
}

// IgnoresFile reports whether declarations located in the given file should
// be excluded from the index.
func (c *Config) IgnoresFile(path string) bool {
	if c.matcher == nil {
		return false
	}
	return c.matcher.MatchesPath(c.RelPath(path))
}

// IgnoresNamespace reports whether any namespace in the given enclosing
// chain matches a configured ignore substring. Anonymous namespace entries
// are skipped here; they are rejected by their own filter.
func (c *Config) IgnoresNamespace(chain []string) bool {
	if len(c.IgnoreNamespaces) == 0 {
		return false
	}
	for _, ns := range chain {
		if ns == "" {
			continue
		}
		for _, substr := range c.IgnoreNamespaces {
			if strings.Contains(ns, substr) {
				return true
			}
		}
	}
	return false
}
