package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Block is a single subtitle cue. Index is the cue number from the source
// file and is never reassigned; Start and End are offsets from the beginning
// of the media with millisecond resolution. TranslatedContent stays empty
// until the translation orchestrator writes it.
type Block struct {
	Index             int
	Start             time.Duration
	End               time.Duration
	Content           string
	TranslatedContent string
}

// Chunk is an ordered, non-empty group of blocks submitted together as one
// translation request. Chunks partition the parsed sequence; boundaries carry
// no meaning beyond request sizing.
type Chunk []*Block

// Lines splits the block's original content into its display lines.
func (b *Block) Lines() []string {
	return strings.Split(b.Content, "\n")
}

// OutputContent returns the text the reassembler should emit: the
// translation when present, the original content otherwise.
func (b *Block) OutputContent() string {
	if strings.TrimSpace(b.TranslatedContent) != "" {
		return b.TranslatedContent
	}
	return b.Content
}

// FormatTimestamp renders an offset in the canonical SRT form
// HH:MM:SS,mmm. Offsets of a day or more keep accumulating hours.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	millis := d.Milliseconds()
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	seconds := millis / 1000
	millis -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseTimestamp reads an SRT timestamp. A period is accepted in place of the
// standard comma before the millisecond field.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(strings.TrimSpace(timeParts[1]))
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || seconds < 0 || millis < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}
