// Package config loads and validates the optional .gitrun YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deixis/gitrun/internal/logging"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the repository root.
const FileName = ".gitrun"

// Default values for runner configuration.
const (
	DefaultGit           = "git"
	DefaultSlowThreshold = time.Second
	DefaultHistory       = 5
)

// Config holds the parsed .gitrun configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version          int            `yaml:"version"`
	Git              string         `yaml:"git"`            // git binary path or name
	RawSlowThreshold string         `yaml:"slow_threshold"` // e.g. "1s", "250ms"
	RawHistory       int            `yaml:"history"`        // runs kept in memory
	Env              []string       `yaml:"env"`            // extra KEY=value pairs for every run
	Log              logging.Config `yaml:"log"`
}

// GitBinary returns the configured git binary or the default.
func (c *Config) GitBinary() string {
	if c.Git != "" {
		return c.Git
	}
	return DefaultGit
}

// SlowThreshold returns the configured slow-run threshold or the default.
func (c *Config) SlowThreshold() time.Duration {
	if c.RawSlowThreshold != "" {
		d, err := time.ParseDuration(c.RawSlowThreshold)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultSlowThreshold
}

// History returns the configured history capacity or the default.
func (c *Config) History() int {
	if c.RawHistory > 0 {
		return c.RawHistory
	}
	return DefaultHistory
}

// Logging returns the log configuration with environment overrides applied.
func (c *Config) Logging() logging.Config {
	lc := c.Log
	lc.ApplyEnv()
	lc.ApplyDefaults()
	return lc
}

// LoadResult holds the parsed config and the discovered repository root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing .git; falls back to workspace
}

// Load reads the .gitrun file from the repository root.
// The repository root is discovered by walking upward from workspace
// looking for .git. If no .gitrun file exists, a default Config is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRepoRoot(workspace)
	if err != nil {
		// Not inside a repository; use workspace as root.
		root = workspace
	}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LoadResult{Config: &Config{}, RepoRoot: root}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

// findRepoRoot walks upward from dir looking for a directory containing
// .git, which is a directory in clones and a file in worktrees.
func findRepoRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".git not found")
		}
		dir = parent
	}
}
