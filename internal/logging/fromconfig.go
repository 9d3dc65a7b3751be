package logging

import (
	"log/slog"
	"path/filepath"

	"subtrans/internal/config"
)

// NewFromConfig builds the daemon logger from configuration: stdout plus
// subtrans.log in the configured log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "subtrans.log")},
	})
}
