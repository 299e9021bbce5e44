package config

const (
	defaultScratchDir          = "~/.local/share/dugout/scratch"
	defaultLogDir              = "~/.local/share/dugout/logs"
	defaultAPIBind             = "127.0.0.1:7643"
	defaultRemoteEndpoint      = "127.0.0.1:9000"
	defaultRemoteBucket        = "dugout-media"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMaxAttempts         = 5
	defaultRestartInterval     = 3600
	defaultContentTypeInterval = 43200
	defaultAlternateInterval   = 3600
	defaultAlternateBatch      = 10
	defaultTempFileInterval    = 43200
	defaultOrphanInterval      = 86400
	defaultOrphanAgeHours      = 24
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Remote: Remote{
			Endpoint: defaultRemoteEndpoint,
			Bucket:   defaultRemoteBucket,
		},
		Import: Import{
			MaxAttempts: defaultMaxAttempts,
		},
		Sweep: Sweep{
			RestartInterval:     defaultRestartInterval,
			ContentTypeInterval: defaultContentTypeInterval,
			AlternateInterval:   defaultAlternateInterval,
			AlternateBatch:      defaultAlternateBatch,
			TempFileInterval:    defaultTempFileInterval,
			OrphanInterval:      defaultOrphanInterval,
			OrphanAgeHours:      defaultOrphanAgeHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
