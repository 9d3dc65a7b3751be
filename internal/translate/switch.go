package translate

import "context"

// Switch routes capability calls by speed mode: mock-mode requests go to the
// deterministic echo capability, everything else to the live backend. The
// daemon and CLI wrap their Gemini client in a Switch so mock runs need no
// credentials and no network.
type Switch struct {
	mock Capability
	live Capability
}

// NewSwitch builds a Switch around the live capability.
func NewSwitch(live Capability) *Switch {
	return &Switch{mock: &MockCapability{}, live: live}
}

// Translate implements Capability.
func (s *Switch) Translate(ctx context.Context, req Request) (Result, error) {
	return s.pick(req.Mode).Translate(ctx, req)
}

// DetectContext implements Capability.
func (s *Switch) DetectContext(ctx context.Context, sample []string, targetLanguage string, mode Mode) (string, error) {
	return s.pick(mode).DetectContext(ctx, sample, targetLanguage, mode)
}

func (s *Switch) pick(mode Mode) Capability {
	if mode == ModeMock {
		return s.mock
	}
	return s.live
}
