package translate

import "context"

// Gate bounds how many translation calls run simultaneously. It is shared by
// every task of a job, and may be shared across jobs to cap total load on the
// external service. Acquire blocks cooperatively until a slot frees up or the
// context is cancelled.
type Gate struct {
	slots chan struct{}
}

// NewGate builds a gate admitting at most limit concurrent holders. Limits
// below one are raised to one.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire claims one slot, waiting as long as needed. It returns the context
// error if cancellation wins the wait.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot claimed by Acquire.
func (g *Gate) Release() {
	select {
	case <-g.slots:
	default:
		panic("translate: gate released without matching acquire")
	}
}

// Limit reports the gate's capacity.
func (g *Gate) Limit() int {
	return cap(g.slots)
}
