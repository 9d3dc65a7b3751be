package config

const (
	defaultWorkDir          = "~/.local/share/subtrans/work"
	defaultLogDir           = "~/.local/share/subtrans/logs"
	defaultStatsDB          = "~/.local/share/subtrans/stats.db"
	defaultBind             = "127.0.0.1:8411"
	defaultMaxUploadBytes   = 2 * 1024 * 1024
	defaultSessionFileLimit = 50
	defaultChunkMaxBlocks   = 100
	defaultMaxBlocks        = 20000
	defaultRetryMaxAttempts = 6
	defaultConcurrencyLimit = 10
	defaultFailureThreshold = 1.0
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultFastModel        = "gemini-2.5-flash"
	defaultNormalModel      = "gemini-2.5-pro"
	defaultGeminiTimeout    = 120
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

func defaultTargetLanguages() []string {
	return []string{"Vietnamese", "French"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			StatsDB: defaultStatsDB,
		},
		Server: Server{
			Bind:             defaultBind,
			MaxUploadBytes:   defaultMaxUploadBytes,
			SessionFileLimit: defaultSessionFileLimit,
		},
		Translation: Translation{
			TargetLanguages:  defaultTargetLanguages(),
			ChunkMaxBlocks:   defaultChunkMaxBlocks,
			MaxBlocks:        defaultMaxBlocks,
			RetryMaxAttempts: defaultRetryMaxAttempts,
			ConcurrencyLimit: defaultConcurrencyLimit,
			FailureThreshold: defaultFailureThreshold,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			FastModel:      defaultFastModel,
			NormalModel:    defaultNormalModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
