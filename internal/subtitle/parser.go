package subtitle

import (
	"strconv"
	"strings"
	"time"

	"subtrans/internal/services"
)

// Limits bounds the input the parser will accept. Zero values disable the
// corresponding check.
type Limits struct {
	MaxBytes  int64
	MaxBlocks int
}

// Parse decomposes raw SRT text into blocks in file order. Cue numbers are
// preserved as-is, even when non-contiguous or unsorted; malformed timing is
// rejected but end-before-start timing is passed through untouched.
func Parse(data []byte, limits Limits) ([]*Block, error) {
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, services.Wrap(services.ErrValidation, "parser", "parse",
			"file exceeds the size limit of "+strconv.FormatInt(limits.MaxBytes, 10)+" bytes", nil)
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	if strings.TrimSpace(content) == "" {
		return nil, services.Wrap(services.ErrValidation, "parser", "parse", "file is empty", nil)
	}

	var blocks []*Block
	for _, raw := range strings.Split(content, "\n\n") {
		raw = strings.Trim(raw, "\n")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		block, err := parseBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		if limits.MaxBlocks > 0 && len(blocks) > limits.MaxBlocks {
			return nil, services.Wrap(services.ErrValidation, "parser", "parse",
				"file exceeds the limit of "+strconv.Itoa(limits.MaxBlocks)+" blocks", nil)
		}
	}
	if len(blocks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "parser", "parse", "file contains no subtitle blocks", nil)
	}
	return blocks, nil
}

func parseBlock(raw string) (*Block, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return nil, services.Wrap(services.ErrFormat, "parser", "parse block",
			"block "+snippet(raw)+" is missing its timestamp line", nil)
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || index <= 0 {
		return nil, services.Wrap(services.ErrFormat, "parser", "parse block",
			"invalid cue number "+strconv.Quote(strings.TrimSpace(lines[0])), nil)
	}
	start, end, err := parseTimingLine(lines[1])
	if err != nil {
		return nil, services.Wrap(services.ErrFormat, "parser", "parse block",
			"cue "+strconv.Itoa(index), err)
	}
	content := ""
	if len(lines) > 2 {
		content = strings.Join(lines[2:], "\n")
	}
	return &Block{Index: index, Start: start, End: end, Content: content}, nil
}

func parseTimingLine(line string) (start, end time.Duration, err error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, services.Wrap(services.ErrFormat, "parser", "parse timing",
			"missing '-->' separator in "+strconv.Quote(strings.TrimSpace(line)), nil)
	}
	start, err = ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseTimestamp(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ChunkBlocks partitions blocks in order into chunks of at most size blocks.
// The final chunk may be short; size is a hard upper bound, not a target.
func ChunkBlocks(blocks []*Block, size int) ([]Chunk, error) {
	if size < 1 {
		return nil, services.Wrap(services.ErrValidation, "parser", "chunk",
			"chunk size must be at least 1, got "+strconv.Itoa(size), nil)
	}
	chunks := make([]Chunk, 0, (len(blocks)+size-1)/size)
	for start := 0; start < len(blocks); start += size {
		end := min(start+size, len(blocks))
		chunks = append(chunks, Chunk(blocks[start:end]))
	}
	return chunks, nil
}

// ParseChunks parses raw SRT text and chunks the result in one step.
func ParseChunks(data []byte, chunkSize int, limits Limits) ([]Chunk, error) {
	blocks, err := Parse(data, limits)
	if err != nil {
		return nil, err
	}
	return ChunkBlocks(blocks, chunkSize)
}

func snippet(raw string) string {
	raw = strings.TrimSpace(raw)
	const limit = 40
	runes := []rune(raw)
	if len(runes) > limit {
		raw = string(runes[:limit]) + "..."
	}
	return strconv.Quote(raw)
}
