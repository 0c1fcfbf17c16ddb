package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediamorph/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.BaseURL = "http://127.0.0.1:0"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DownloadDir = filepath.Join(base, "downloads")

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBaseURL points the test config at a running test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// WithPollInterval overrides the job polling cadence in seconds.
func WithPollInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.PollInterval = seconds
	}
}

// WithChunkMiB overrides the chunked upload threshold.
func WithChunkMiB(mib int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.UploadChunkMiB = mib
	}
}

// WithHistoryPollInterval overrides the preview/history polling cadence in seconds.
func WithHistoryPollInterval(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.HistoryPollInterval = seconds
	}
}

// WithRequestTimeout overrides the per-request timeout in seconds.
func WithRequestTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.RequestTimeout = seconds
	}
}

// WithLogLevel overrides the minimum log level.
func WithLogLevel(level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Level = level
	}
}

// WriteConfig marshals cfg to a TOML file under a fresh temp dir and returns
// the file path, ready to hand to the CLI's --config flag.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
