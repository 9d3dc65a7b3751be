package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeTranslation()
	c.normalizeGemini()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StatsDB) == "" {
		c.Paths.StatsDB = defaultStatsDB
	}
	if c.Paths.StatsDB, err = expandPath(c.Paths.StatsDB); err != nil {
		return fmt.Errorf("paths.stats_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Server.SessionFileLimit <= 0 {
		c.Server.SessionFileLimit = defaultSessionFileLimit
	}
}

func (c *Config) normalizeTranslation() {
	if c.Translation.ChunkMaxBlocks <= 0 {
		c.Translation.ChunkMaxBlocks = defaultChunkMaxBlocks
	}
	if c.Translation.MaxBlocks <= 0 {
		c.Translation.MaxBlocks = defaultMaxBlocks
	}
	if c.Translation.RetryMaxAttempts <= 0 {
		c.Translation.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if c.Translation.ConcurrencyLimit <= 0 {
		c.Translation.ConcurrencyLimit = defaultConcurrencyLimit
	}
	if c.Translation.FailureThreshold == 0 {
		c.Translation.FailureThreshold = defaultFailureThreshold
	}
	languages := make([]string, 0, len(c.Translation.TargetLanguages))
	for _, lang := range c.Translation.TargetLanguages {
		if trimmed := strings.TrimSpace(lang); trimmed != "" {
			languages = append(languages, trimmed)
		}
	}
	if len(languages) == 0 {
		languages = defaultTargetLanguages()
	}
	c.Translation.TargetLanguages = languages
}

func (c *Config) normalizeGemini() {
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = value
		}
	}
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.FastModel = strings.TrimSpace(c.Gemini.FastModel)
	if c.Gemini.FastModel == "" {
		c.Gemini.FastModel = defaultFastModel
	}
	c.Gemini.NormalModel = strings.TrimSpace(c.Gemini.NormalModel)
	if c.Gemini.NormalModel == "" {
		c.Gemini.NormalModel = defaultNormalModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
