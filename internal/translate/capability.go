package translate

import (
	"context"
	"strings"

	"subtrans/internal/services"
)

// Mode selects the speed/quality trade-off for a translation run. Mock mode
// exercises the whole pipeline without touching the external backend.
type Mode string

const (
	ModeMock   Mode = "mock"
	ModeFast   Mode = "fast"
	ModeNormal Mode = "normal"
)

// ParseMode validates a user-supplied mode string. An empty value selects
// normal mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return ModeNormal, nil
	case ModeMock:
		return ModeMock, nil
	case ModeFast:
		return ModeFast, nil
	case ModeNormal:
		return ModeNormal, nil
	}
	return "", services.Wrap(services.ErrValidation, "translate", "parse mode",
		"invalid speed mode "+strings.TrimSpace(value)+" (expected mock, fast, or normal)", nil)
}

// Item is one subtitle cue submitted for translation: the cue number from
// the source file and the original display lines.
type Item struct {
	Index int
	Lines []string
}

// Request is one translation call covering a single chunk.
type Request struct {
	Context        string
	TargetLanguage string
	Mode           Mode
	Items          []Item
}

// Result maps each submitted cue number to its translated lines. Every index
// submitted in the request must be present; silent omission fails validation
// in the orchestrator.
type Result struct {
	Items map[int][]string
}

// Capability is the external language-model boundary. Implementations tag
// retryable failures with services.ErrTransient; anything else is treated as
// permanent by the retry machinery.
type Capability interface {
	Translate(ctx context.Context, req Request) (Result, error)
	DetectContext(ctx context.Context, sample []string, targetLanguage string, mode Mode) (string, error)
}
