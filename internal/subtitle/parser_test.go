package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"subtrans/internal/services"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,500\nHello there.\n\n" +
	"2\n00:00:03,000 --> 00:00:04,000\nTwo lines here,\nsecond one.\n\n" +
	"3\n00:01:00,250 --> 00:01:02,750\nFinal cue.\n"

func TestParseBasic(t *testing.T) {
	blocks, err := Parse([]byte(sampleSRT), Limits{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	first := blocks[0]
	if first.Index != 1 {
		t.Errorf("index = %d, want 1", first.Index)
	}
	if first.Start != time.Second {
		t.Errorf("start = %v, want 1s", first.Start)
	}
	if first.End != 2500*time.Millisecond {
		t.Errorf("end = %v, want 2.5s", first.End)
	}
	if blocks[1].Content != "Two lines here,\nsecond one." {
		t.Errorf("multi-line content not preserved: %q", blocks[1].Content)
	}
	for _, b := range blocks {
		if b.TranslatedContent != "" {
			t.Errorf("block %d has translation before any ran", b.Index)
		}
	}
}

func TestParseWindowsLineEndingsAndBOM(t *testing.T) {
	input := "\ufeff1\r\n00:00:01,000 --> 00:00:02,000\r\nHi.\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nBye.\r\n"
	blocks, err := Parse([]byte(input), Limits{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Content != "Hi." {
		t.Errorf("content = %q", blocks[0].Content)
	}
}

func TestParsePreservesPathologicalNumbering(t *testing.T) {
	input := "7\n00:00:01,000 --> 00:00:02,000\nA.\n\n3\n00:00:03,000 --> 00:00:04,000\nB.\n"
	blocks, err := Parse([]byte(input), Limits{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if blocks[0].Index != 7 || blocks[1].Index != 3 {
		t.Fatalf("cue numbers renumbered: %d, %d", blocks[0].Index, blocks[1].Index)
	}
}

func TestParsePeriodMillisecondSeparator(t *testing.T) {
	input := "1\n00:00:01.000 --> 00:00:02.000\nHi.\n"
	blocks, err := Parse([]byte(input), Limits{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if blocks[0].Start != time.Second {
		t.Errorf("start = %v", blocks[0].Start)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		limits Limits
		marker error
	}{
		{"empty", "", Limits{}, services.ErrValidation},
		{"whitespace only", "  \n\n  ", Limits{}, services.ErrValidation},
		{"oversize", sampleSRT, Limits{MaxBytes: 10}, services.ErrValidation},
		{"too many blocks", sampleSRT, Limits{MaxBlocks: 2}, services.ErrValidation},
		{"missing timestamp line", "1\nJust text\n", Limits{}, services.ErrFormat},
		{"bad cue number", "one\n00:00:01,000 --> 00:00:02,000\nHi.\n", Limits{}, services.ErrFormat},
		{"zero cue number", "0\n00:00:01,000 --> 00:00:02,000\nHi.\n", Limits{}, services.ErrFormat},
		{"no arrow", "1\n00:00:01,000 00:00:02,000\nHi.\n", Limits{}, services.ErrFormat},
		{"garbled timestamp", "1\n00:00:xx,000 --> 00:00:02,000\nHi.\n", Limits{}, services.ErrFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input), tc.limits)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("error %v does not carry marker %v", err, tc.marker)
			}
		})
	}
}

func TestParseAcceptsMalformedTiming(t *testing.T) {
	// End before start is passed through, not repaired.
	input := "1\n00:00:05,000 --> 00:00:01,000\nHi.\n"
	blocks, err := Parse([]byte(input), Limits{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if blocks[0].End >= blocks[0].Start {
		t.Fatalf("timing unexpectedly repaired: %v -> %v", blocks[0].Start, blocks[0].End)
	}
}

func TestChunkBlocksPartition(t *testing.T) {
	for _, tc := range []struct {
		blocks, size, wantChunks int
	}{
		{250, 100, 3},
		{100, 100, 1},
		{101, 100, 2},
		{1, 1, 1},
		{10, 3, 4},
		{7, 7, 1},
	} {
		t.Run(fmt.Sprintf("%d_by_%d", tc.blocks, tc.size), func(t *testing.T) {
			blocks := makeBlocks(tc.blocks)
			chunks, err := ChunkBlocks(blocks, tc.size)
			if err != nil {
				t.Fatalf("ChunkBlocks: %v", err)
			}
			if len(chunks) != tc.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tc.wantChunks)
			}
			seen := 0
			for i, chunk := range chunks {
				if len(chunk) == 0 {
					t.Fatalf("chunk %d is empty", i)
				}
				if len(chunk) > tc.size {
					t.Fatalf("chunk %d has %d blocks, limit %d", i, len(chunk), tc.size)
				}
				for _, b := range chunk {
					seen++
					if b.Index != seen {
						t.Fatalf("order broken: saw index %d at position %d", b.Index, seen)
					}
				}
			}
			if seen != tc.blocks {
				t.Fatalf("partition covered %d blocks, want %d", seen, tc.blocks)
			}
		})
	}
}

func TestChunkBlocksRejectsBadSize(t *testing.T) {
	if _, err := ChunkBlocks(makeBlocks(3), 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseComposeRoundTrip(t *testing.T) {
	blocks, err := Parse([]byte(sampleSRT), Limits{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := ComposeBlocks(blocks)
	again, err := Parse(out, Limits{})
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(again) != len(blocks) {
		t.Fatalf("round trip changed block count: %d -> %d", len(blocks), len(again))
	}
	for i := range blocks {
		if blocks[i].Index != again[i].Index ||
			blocks[i].Start != again[i].Start ||
			blocks[i].End != again[i].End ||
			blocks[i].Content != again[i].Content {
			t.Fatalf("block %d changed across round trip: %+v vs %+v", i, blocks[i], again[i])
		}
	}
	// A second compose is byte-identical.
	if !bytes.Equal(out, ComposeBlocks(again)) {
		t.Fatal("compose is not deterministic")
	}
}

func makeBlocks(n int) []*Block {
	blocks := make([]*Block, 0, n)
	for i := 1; i <= n; i++ {
		blocks = append(blocks, &Block{
			Index:   i,
			Start:   time.Duration(i) * time.Second,
			End:     time.Duration(i)*time.Second + 500*time.Millisecond,
			Content: fmt.Sprintf("Line %d.", i),
		})
	}
	return blocks
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{time.Second + 500*time.Millisecond, "00:00:01,500"},
		{time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, "01:02:03,004"},
		{-time.Second, "00:00:00,000"},
		{26 * time.Hour, "26:00:00,000"},
	}
	for _, tc := range tests {
		if got := FormatTimestamp(tc.d); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "1:2", "a:b:c,d", "00:00:01", "00:00:01,abc"} {
		if _, err := ParseTimestamp(input); err == nil {
			t.Errorf("ParseTimestamp(%q) accepted garbage", input)
		}
	}
}

func TestComposeFallback(t *testing.T) {
	blocks := makeBlocks(3)
	blocks[1].TranslatedContent = "Translated line."
	out := string(ComposeBlocks(blocks))
	if !strings.Contains(out, "Line 1.") || !strings.Contains(out, "Line 3.") {
		t.Fatalf("untranslated blocks lost original content:\n%s", out)
	}
	if !strings.Contains(out, "Translated line.") {
		t.Fatalf("translated block lost translation:\n%s", out)
	}
	if strings.Contains(out, "Line 2.") {
		t.Fatalf("translated block still emits original content:\n%s", out)
	}
}
