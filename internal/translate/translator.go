package translate

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"subtrans/internal/logging"
	"subtrans/internal/services"
	"subtrans/internal/subtitle"
)

// Stats aggregates the outcome of one translation job. RetryCount is the
// number of failed call attempts across all chunks; FailedChunks counts
// chunks that exhausted their attempts and fell back to original content.
type Stats struct {
	TotalBlocks  int
	TotalChunks  int
	RetryCount   int
	FailedChunks int
}

// TranslateAll dispatches one translation task per chunk under the shared
// gate, retrying transient failures per the backoff policy, and writes
// successful translations onto the chunk's blocks in place. Chunk failures
// are isolated: a chunk that exhausts its attempts leaves its blocks
// untranslated and never aborts its siblings. The returned error is non-nil
// only for caller cancellation; partial failure is reported through Stats.
func TranslateAll(
	ctx context.Context,
	contextHint string,
	chunks []subtitle.Chunk,
	targetLanguage string,
	mode Mode,
	capability Capability,
	gate *Gate,
	backoff Backoff,
	logger *slog.Logger,
) (Stats, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	stats := Stats{TotalChunks: len(chunks)}
	for _, chunk := range chunks {
		stats.TotalBlocks += len(chunk)
	}
	if len(chunks) == 0 {
		return stats, nil
	}
	if capability == nil {
		return stats, services.Wrap(services.ErrUnavailable, "translate", "translate all", "no capability configured", nil)
	}
	if gate == nil {
		gate = NewGate(1)
	}

	logger.Debug("starting chunk translation",
		logging.Int("chunks", len(chunks)),
		logging.Int("blocks", stats.TotalBlocks),
		logging.Int("concurrency_limit", gate.Limit()),
		logging.String("target_language", targetLanguage),
		logging.String("mode", string(mode)))

	type outcome struct {
		retries int
		failed  bool
	}
	outcomes := make([]outcome, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(chunkIndex int, chunk subtitle.Chunk) {
			defer wg.Done()
			retries, err := translateChunk(ctx, chunkIndex, chunk, contextHint, targetLanguage, mode, capability, gate, backoff, logger)
			outcomes[chunkIndex] = outcome{retries: retries, failed: err != nil}
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("chunk translation failed, falling back to original content",
					logging.Int("chunk", chunkIndex),
					logging.Int("blocks", len(chunk)),
					logging.Error(err))
			}
		}(i, chunk)
	}
	wg.Wait()

	for _, o := range outcomes {
		stats.RetryCount += o.retries
		if o.failed {
			stats.FailedChunks++
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	logger.Info("chunk translation finished",
		logging.Int("chunks", stats.TotalChunks),
		logging.Int("failed_chunks", stats.FailedChunks),
		logging.Int("retries", stats.RetryCount))
	return stats, nil
}

// translateChunk runs the per-task attempt loop: acquire a gate slot, call
// the capability, validate the response, and either write translations back
// or retry. It returns the number of failed attempts alongside the terminal
// error, if any.
func translateChunk(
	ctx context.Context,
	chunkIndex int,
	chunk subtitle.Chunk,
	contextHint, targetLanguage string,
	mode Mode,
	capability Capability,
	gate *Gate,
	backoff Backoff,
	logger *slog.Logger,
) (int, error) {
	req := buildRequest(chunk, contextHint, targetLanguage, mode)
	attempts := backoff.attempts()
	retries := 0
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := gate.Acquire(ctx); err != nil {
			return retries, err
		}
		result, err := capability.Translate(ctx, req)
		gate.Release()

		if err == nil {
			err = applyResult(chunk, req, result, logger)
			if err == nil {
				if attempt > 1 {
					logger.Info("chunk translated after retries",
						logging.Int("chunk", chunkIndex),
						logging.Int("attempt", attempt))
				}
				return retries, nil
			}
		}

		retries++
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return retries, ctxErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return retries, err
		}
		if !services.IsRetryable(err) {
			break
		}
		if attempt == attempts {
			break
		}
		logger.Debug("retrying chunk",
			logging.Int("chunk", chunkIndex),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Error(err))
		if err := backoff.sleep(ctx, backoff.delayAfter(attempt, lastErr)); err != nil {
			return retries, err
		}
	}

	return retries, services.Wrap(services.ErrChunkTranslation, "translate", "translate chunk", "", lastErr)
}

func buildRequest(chunk subtitle.Chunk, contextHint, targetLanguage string, mode Mode) Request {
	items := make([]Item, 0, len(chunk))
	for _, block := range chunk {
		items = append(items, Item{Index: block.Index, Lines: block.Lines()})
	}
	return Request{
		Context:        contextHint,
		TargetLanguage: targetLanguage,
		Mode:           mode,
		Items:          items,
	}
}

// applyResult validates a capability response against the request and writes
// translations onto the blocks. Every submitted index must come back with
// non-empty lines; extras are ignored. Blocks are only mutated once the whole
// response validates, so a rejected response never leaves a chunk half
// translated.
func applyResult(chunk subtitle.Chunk, req Request, result Result, logger *slog.Logger) error {
	translated := make(map[int]string, len(req.Items))
	for _, item := range req.Items {
		lines, ok := result.Items[item.Index]
		if !ok {
			return services.Wrap(services.ErrChunkTranslation, "translate", "validate response",
				"index "+strconv.Itoa(item.Index)+" missing from response", nil)
		}
		joined := strings.TrimSpace(strings.Join(lines, "\n"))
		if joined == "" {
			return services.Wrap(services.ErrChunkTranslation, "translate", "validate response",
				"empty translation for index "+strconv.Itoa(item.Index), nil)
		}
		translated[item.Index] = strings.Join(lines, "\n")
	}
	if extras := len(result.Items) - len(translated); extras > 0 {
		logger.Debug("response carried extra indices", logging.Int("extra", extras))
	}
	for _, block := range chunk {
		block.TranslatedContent = translated[block.Index]
	}
	return nil
}
