package config

const (
	defaultLibraryDir = "~/.local/share/chorus/library"
	defaultMediaDir   = "~/.local/share/chorus/media"
	defaultStagingDir = "~/.local/share/chorus/staging"
	defaultLogDir     = "~/.local/share/chorus/logs"
	defaultBind       = "127.0.0.1:5880"

	defaultFetchTimeout = 1800
	defaultSplitTimeout = 600

	defaultRequestTimeout = 30
	defaultMaxMessageMiB  = 32

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultNotifyTimeout = 10
)

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			MediaDir:   defaultMediaDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			Bind:       defaultBind,
		},
		Downloader: Downloader{
			FetchTimeout: defaultFetchTimeout,
			SplitTimeout: defaultSplitTimeout,
		},
		Network: Network{
			RequestTimeout: defaultRequestTimeout,
			MaxMessageMiB:  defaultMaxMessageMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
