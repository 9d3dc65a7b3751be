package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"subtrans/internal/logging"
	"subtrans/internal/services"
	"subtrans/internal/subtitle"
)

const (
	// contextSampleLines bounds how much of the first chunk is sampled for
	// context detection.
	contextSampleLines = 100

	mockContext         = "General conversation (mock)"
	emptyInputContext   = "Unknown (empty input)"
	noTextContext       = "Unknown (no text content)"
	maxContextLogLength = 100
)

// DetectContext samples the beginning of the subtitle and asks the capability
// for a short description of the likely subject matter. The description
// steers every later translation, so exhausting retries here is fatal for the
// whole job rather than a silent fallback.
func DetectContext(
	ctx context.Context,
	chunks []subtitle.Chunk,
	targetLanguage string,
	mode Mode,
	capability Capability,
	backoff Backoff,
	logger *slog.Logger,
) (string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if mode == ModeMock {
		logger.Debug("using mock context detection")
		return mockContext, nil
	}
	if capability == nil {
		return "", services.Wrap(services.ErrUnavailable, "translate", "detect context", "no capability configured", nil)
	}
	if len(chunks) == 0 || len(chunks[0]) == 0 {
		logger.Warn("subtitle is empty, skipping context detection")
		return emptyInputContext, nil
	}

	sample := sampleLines(chunks[0], contextSampleLines)
	if len(sample) == 0 {
		logger.Warn("no usable text in context sample")
		return noTextContext, nil
	}

	attempts := backoff.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		detected, err := capability.DetectContext(ctx, sample, targetLanguage, mode)
		if err == nil {
			detected = strings.TrimSpace(detected)
			if detected == "" {
				err = services.Wrap(services.ErrTransient, "translate", "detect context", "empty context returned", nil)
			} else {
				logger.Info("context detected", logging.String("context", truncate(detected, maxContextLogLength)))
				return detected, nil
			}
		}

		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if !services.IsRetryable(err) {
			break
		}
		if attempt == attempts {
			break
		}
		logger.Debug("retrying context detection",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Error(err))
		if err := backoff.sleep(ctx, backoff.delayAfter(attempt, lastErr)); err != nil {
			return "", err
		}
	}

	return "", services.Wrap(services.ErrContextDetection, "translate", "detect context", "", lastErr)
}

// sampleLines flattens block contents into at most limit display lines,
// dropping blank ones.
func sampleLines(chunk subtitle.Chunk, limit int) []string {
	lines := make([]string, 0, limit)
	for _, block := range chunk {
		for _, line := range block.Lines() {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
			if len(lines) >= limit {
				return lines
			}
		}
	}
	return lines
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
