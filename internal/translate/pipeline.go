package translate

import (
	"context"
	"log/slog"
	"strings"

	"subtrans/internal/language"
	"subtrans/internal/logging"
	"subtrans/internal/services"
	"subtrans/internal/subtitle"
)

// PipelineConfig carries the tunables for one pipeline instance.
type PipelineConfig struct {
	ChunkSize       int
	Limits          subtitle.Limits
	TargetLanguages []string
	// FailureThreshold promotes isolated chunk failures to a job error when
	// failed/total reaches the fraction. 1.0 means only a fully failed job
	// errors; values above 1 disable the promotion entirely.
	FailureThreshold float64
}

// Pipeline wires parsing, context detection, chunk translation, and
// reassembly into the single operation exposed to callers. The gate may be
// shared between pipelines to bound load across concurrent jobs.
type Pipeline struct {
	cfg        PipelineConfig
	capability Capability
	gate       *Gate
	backoff    Backoff
	logger     *slog.Logger
}

// NewPipeline constructs a pipeline. A nil gate gets a single-slot gate; a
// nil logger logs nowhere.
func NewPipeline(cfg PipelineConfig, capability Capability, gate *Gate, backoff Backoff, logger *slog.Logger) *Pipeline {
	if gate == nil {
		gate = NewGate(1)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 100
	}
	return &Pipeline{cfg: cfg, capability: capability, gate: gate, backoff: backoff, logger: logger}
}

// Run translates raw SRT bytes into the target language and returns the
// reassembled output plus job statistics. Validation and format errors abort
// before any external call; context detection failure aborts the job; chunk
// failures degrade to original content unless the failure threshold promotes
// them.
func (p *Pipeline) Run(ctx context.Context, raw []byte, targetLanguage string, mode Mode) ([]byte, Stats, error) {
	display, err := p.resolveLanguage(targetLanguage)
	if err != nil {
		return nil, Stats{}, err
	}

	chunks, err := subtitle.ParseChunks(raw, p.cfg.ChunkSize, p.cfg.Limits)
	if err != nil {
		return nil, Stats{}, err
	}
	blocks := 0
	for _, chunk := range chunks {
		blocks += len(chunk)
	}
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("parsed subtitle",
		logging.Int("blocks", blocks),
		logging.Int("chunks", len(chunks)),
		logging.String("target_language", display))

	contextHint, err := DetectContext(ctx, chunks, display, mode, p.capability, p.backoff, logger)
	if err != nil {
		return nil, Stats{}, err
	}

	stats, err := TranslateAll(ctx, contextHint, chunks, display, mode, p.capability, p.gate, p.backoff, logger)
	if err != nil {
		return nil, stats, err
	}
	if err := p.checkFailureThreshold(stats); err != nil {
		return nil, stats, err
	}

	return subtitle.Compose(chunks), stats, nil
}

func (p *Pipeline) resolveLanguage(targetLanguage string) (string, error) {
	display, ok := language.Resolve(targetLanguage)
	if !ok {
		display = strings.TrimSpace(targetLanguage)
	}
	if display == "" {
		return "", services.Wrap(services.ErrValidation, "pipeline", "resolve language", "target language must be specified", nil)
	}
	if len(p.cfg.TargetLanguages) == 0 {
		return display, nil
	}
	for _, allowed := range p.cfg.TargetLanguages {
		allowedDisplay, ok := language.Resolve(allowed)
		if !ok {
			allowedDisplay = strings.TrimSpace(allowed)
		}
		if strings.EqualFold(allowedDisplay, display) {
			return allowedDisplay, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "pipeline", "resolve language",
		"unsupported target language "+display+" (available: "+strings.Join(p.cfg.TargetLanguages, ", ")+")", nil)
}

func (p *Pipeline) checkFailureThreshold(stats Stats) error {
	threshold := p.cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 1.0
	}
	if threshold > 1 || stats.TotalChunks == 0 || stats.FailedChunks == 0 {
		return nil
	}
	if float64(stats.FailedChunks)/float64(stats.TotalChunks) >= threshold {
		return services.Wrap(services.ErrChunkTranslation, "pipeline", "check failures",
			"too many chunks failed", nil)
	}
	return nil
}
