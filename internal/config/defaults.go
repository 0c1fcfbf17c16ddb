package config

const (
	defaultBaseURL             = "http://localhost:8000/api"
	defaultRequestTimeout      = 30
	defaultUploadChunkMiB      = 0
	defaultPollInterval        = 3
	defaultHistoryPollInterval = 4
	defaultStateDir            = "~/.local/share/mediamorph"
	defaultLogDir              = "~/.local/share/mediamorph/logs"
	defaultDownloadDir         = "~/Downloads"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
			UploadChunkMiB: defaultUploadChunkMiB,
		},
		Watch: Watch{
			PollInterval:        defaultPollInterval,
			HistoryPollInterval: defaultHistoryPollInterval,
		},
		Paths: Paths{
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
