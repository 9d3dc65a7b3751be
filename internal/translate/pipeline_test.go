package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"subtrans/internal/services"
	"subtrans/internal/subtitle"
)

func srtFixture(blocks int) []byte {
	var b strings.Builder
	for i := 1; i <= blocks; i++ {
		fmt.Fprintf(&b, "%d\n00:00:%02d,000 --> 00:00:%02d,500\nLine %d\n\n", i, i%60, i%60, i)
	}
	return []byte(b.String())
}

func testPipeline(capability Capability, gate *Gate) *Pipeline {
	cfg := PipelineConfig{
		ChunkSize:       100,
		TargetLanguages: []string{"Vietnamese", "French"},
	}
	return NewPipeline(cfg, capability, gate, fastBackoff(6), nil)
}

func TestPipelineTranslatesWholeFile(t *testing.T) {
	mock := &MockCapability{}
	p := testPipeline(mock, NewGate(10))

	out, stats, err := p.Run(context.Background(), srtFixture(250), "French", ModeMock)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.TotalBlocks != 250 || stats.TotalChunks != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.RetryCount != 0 || stats.FailedChunks != 0 {
		t.Fatalf("expected clean run: %+v", stats)
	}

	parsed, err := subtitle.Parse(out, subtitle.Limits{})
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if len(parsed) != 250 {
		t.Fatalf("expected 250 blocks out, got %d", len(parsed))
	}
	if parsed[0].Content != "Line 1" || parsed[249].Content != "Line 250" {
		t.Fatalf("unexpected output content: %q / %q", parsed[0].Content, parsed[249].Content)
	}
}

func TestPipelineRecoversChunkAfterRetries(t *testing.T) {
	mock := &MockCapability{
		TranslateHook: func(req Request, attempt int) error {
			if len(req.Items) > 0 && req.Items[0].Index == 101 && attempt <= 2 {
				return transientErr("flaky")
			}
			return nil
		},
	}
	p := testPipeline(mock, NewGate(10))

	_, stats, err := p.Run(context.Background(), srtFixture(250), "French", ModeMock)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RetryCount != 2 {
		t.Fatalf("expected 2 retries, got %d", stats.RetryCount)
	}
	if stats.FailedChunks != 0 {
		t.Fatalf("expected no failed chunks: %+v", stats)
	}
}

func TestPipelineFallsBackForExhaustedChunk(t *testing.T) {
	mock := &MockCapability{
		TranslateHook: func(req Request, _ int) error {
			if len(req.Items) > 0 && req.Items[0].Index == 201 {
				return transientErr("dead zone")
			}
			return nil
		},
	}
	p := testPipeline(mock, NewGate(10))

	out, stats, err := p.Run(context.Background(), srtFixture(250), "French", ModeMock)
	if err != nil {
		t.Fatalf("expected partial failure tolerated, got %v", err)
	}
	if stats.FailedChunks != 1 {
		t.Fatalf("expected 1 failed chunk: %+v", stats)
	}
	parsed, err := subtitle.Parse(out, subtitle.Limits{})
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	// Failed chunk carries the original text.
	if parsed[200].Content != "Line 201" {
		t.Fatalf("expected original fallback, got %q", parsed[200].Content)
	}
	if len(parsed) != 250 {
		t.Fatalf("expected all blocks present, got %d", len(parsed))
	}
}

func TestPipelineFailsWhenEveryChunkFails(t *testing.T) {
	mock := &MockCapability{
		TranslateHook: func(Request, int) error {
			return transientErr("hard down")
		},
	}
	p := testPipeline(mock, NewGate(10))

	_, stats, err := p.Run(context.Background(), srtFixture(250), "French", ModeMock)
	if !errors.Is(err, services.ErrChunkTranslation) {
		t.Fatalf("expected job failure when all chunks fail, got %v", err)
	}
	if stats.FailedChunks != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPipelineThresholdPromotesPartialFailure(t *testing.T) {
	mock := &MockCapability{
		TranslateHook: func(req Request, _ int) error {
			if len(req.Items) > 0 && req.Items[0].Index == 1 {
				return transientErr("down")
			}
			return nil
		},
	}
	cfg := PipelineConfig{
		ChunkSize:        100,
		TargetLanguages:  []string{"French"},
		FailureThreshold: 0.3,
	}
	p := NewPipeline(cfg, mock, NewGate(4), fastBackoff(2), nil)

	_, stats, err := p.Run(context.Background(), srtFixture(250), "French", ModeMock)
	if !errors.Is(err, services.ErrChunkTranslation) {
		t.Fatalf("expected threshold promotion, got %v", err)
	}
	if stats.FailedChunks != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPipelineContextDetectionFailureIsFatal(t *testing.T) {
	mock := &MockCapability{
		ContextHook: func([]string) (string, error) {
			return "", transientErr("no context today")
		},
	}
	p := testPipeline(mock, NewGate(2))

	_, _, err := p.Run(context.Background(), srtFixture(10), "French", ModeNormal)
	if !errors.Is(err, services.ErrContextDetection) {
		t.Fatalf("expected context detection failure, got %v", err)
	}
	if mock.Calls() != 0 {
		t.Fatalf("no translation calls expected after fatal detection, got %d", mock.Calls())
	}
}

func TestPipelineResolvesLanguageAliases(t *testing.T) {
	mock := &MockCapability{}
	p := testPipeline(mock, NewGate(2))

	var requested string
	mock.TranslateHook = func(req Request, _ int) error {
		requested = req.TargetLanguage
		return nil
	}
	if _, _, err := p.Run(context.Background(), srtFixture(5), "vi", ModeMock); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if requested != "Vietnamese" {
		t.Fatalf("expected alias to resolve to Vietnamese, got %q", requested)
	}
}

func TestPipelineRejectsBadInput(t *testing.T) {
	p := testPipeline(&MockCapability{}, NewGate(2))

	cases := []struct {
		name   string
		raw    []byte
		lang   string
		marker error
	}{
		{"empty file", nil, "French", services.ErrValidation},
		{"blank language", srtFixture(3), "   ", services.ErrValidation},
		{"unsupported language", srtFixture(3), "Klingon", services.ErrValidation},
		{"garbled cue", []byte("1\nnot a timestamp\nhello\n"), "French", services.ErrFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := p.Run(context.Background(), tc.raw, tc.lang, ModeMock)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestPipelineEnforcesLimits(t *testing.T) {
	cfg := PipelineConfig{
		ChunkSize:       100,
		TargetLanguages: []string{"French"},
		Limits:          subtitle.Limits{MaxBytes: 64},
	}
	p := NewPipeline(cfg, &MockCapability{}, NewGate(1), fastBackoff(1), nil)

	_, _, err := p.Run(context.Background(), srtFixture(10), "French", ModeMock)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected size limit violation, got %v", err)
	}
}
