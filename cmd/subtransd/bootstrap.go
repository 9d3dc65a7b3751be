package main

import (
	"context"
	"log/slog"

	"subtrans/internal/config"
	"subtrans/internal/logging"
	"subtrans/internal/preflight"
	"subtrans/internal/services/gemini"
	"subtrans/internal/translate"
)

// buildCapability assembles the translation backend from configuration. The
// returned switch still honours mock-mode requests without credentials.
func buildCapability(cfg *config.Config) translate.Capability {
	return translate.NewSwitch(gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		FastModel:      cfg.Gemini.FastModel,
		NormalModel:    cfg.Gemini.NormalModel,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	}))
}

// runPreflight executes the readiness checks and logs each result. It returns
// false when a local check fails; Gemini reachability failures are logged but
// do not block startup so mock-mode requests keep working.
func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) bool {
	ok := true
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
		if result.Name != preflight.CheckNameGemini {
			ok = false
		}
	}
	return ok
}
