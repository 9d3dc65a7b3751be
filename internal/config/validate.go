package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q is not a valid host:port: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.FailureThreshold < 0 {
		return errors.New("translation.failure_threshold must not be negative")
	}
	if c.Translation.ConcurrencyLimit > 256 {
		return errors.New("translation.concurrency_limit must be 256 or lower")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireGeminiKey returns an error when no API key is configured. The daemon
// and CLI call this before building a live client so mock-mode runs stay
// usable without credentials.
func (c *Config) RequireGeminiKey() error {
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/subtrans/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'subtrans config init')", defaultPath)
	}
	return nil
}
