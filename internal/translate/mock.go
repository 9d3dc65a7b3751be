package translate

import (
	"context"
	"sync"
	"time"
)

// MockCapability is the deterministic capability used by mock speed mode and
// by pipeline tests. It echoes each submitted cue back as its own
// translation, optionally after a simulated latency, and records the maximum
// number of calls it ever served simultaneously so tests can assert the
// concurrency gate holds.
//
// TranslateHook, when set, runs before the echo response is produced; return
// a non-nil error to script a failure for that call. The hook receives the
// 1-based attempt number for the chunk, keyed by its first cue index.
type MockCapability struct {
	Latency       time.Duration
	TranslateHook func(req Request, attempt int) error
	ContextHook   func(sample []string) (string, error)

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       int
	attempts    map[int]int
}

// Translate implements Capability.
func (m *MockCapability) Translate(ctx context.Context, req Request) (Result, error) {
	attempt := m.enter(req)
	defer m.leave()

	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if m.TranslateHook != nil {
		if err := m.TranslateHook(req, attempt); err != nil {
			return Result{}, err
		}
	}

	items := make(map[int][]string, len(req.Items))
	for _, item := range req.Items {
		lines := make([]string, len(item.Lines))
		copy(lines, item.Lines)
		items[item.Index] = lines
	}
	return Result{Items: items}, nil
}

// DetectContext implements Capability.
func (m *MockCapability) DetectContext(ctx context.Context, sample []string, _ string, _ Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.ContextHook != nil {
		return m.ContextHook(sample)
	}
	return mockContext, nil
}

// MaxInFlight reports the highest number of simultaneous Translate calls
// observed.
func (m *MockCapability) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Calls reports how many Translate calls were made in total.
func (m *MockCapability) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCapability) enter(req Request) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	if m.attempts == nil {
		m.attempts = make(map[int]int)
	}
	key := -1
	if len(req.Items) > 0 {
		key = req.Items[0].Index
	}
	m.attempts[key]++
	return m.attempts[key]
}

func (m *MockCapability) leave() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}
