package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the conversion service.
type API struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	UploadChunkMiB int    `toml:"upload_chunk_mib"`
}

// Watch contains polling cadence settings.
type Watch struct {
	PollInterval        int `toml:"poll_interval"`
	HistoryPollInterval int `toml:"history_poll_interval"`
}

// Paths contains local directory configuration.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	DownloadDir string `toml:"download_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediamorph.
//
// Configuration sections by subsystem:
//   - API: conversion service base URL, request timeout, chunked upload threshold
//   - Watch: job and preview polling intervals
//   - Paths: state, log, and download directories
//   - Logging: log format and level
type Config struct {
	API     API     `toml:"api"`
	Watch   Watch   `toml:"watch"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediamorph/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/mediamorph/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediamorph.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The download
// directory is created on a best-effort basis so config load does not fail
// when it points at offline storage.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DownloadDir) != "" {
		_ = os.MkdirAll(c.Paths.DownloadDir, 0o755)
	}
	return nil
}

// RequestTimeout returns the bounded per-request timeout for API calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeout) * time.Second
}

// PollInterval returns the job status polling period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollInterval) * time.Second
}

// HistoryPollInterval returns the history/list refresh polling period.
func (c *Config) HistoryPollInterval() time.Duration {
	return time.Duration(c.Watch.HistoryPollInterval) * time.Second
}

// UploadChunkBytes returns the chunked upload threshold in bytes.
// Zero disables chunked uploads.
func (c *Config) UploadChunkBytes() int64 {
	if c.API.UploadChunkMiB <= 0 {
		return 0
	}
	return int64(c.API.UploadChunkMiB) * 1024 * 1024
}

// SessionPath returns the path of the persisted session token file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Paths.StateDir, "session.json")
}

// JournalPath returns the path of the local submission journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
