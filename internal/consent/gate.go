package consent

import (
	"context"
	"fmt"
	"sync"
)

// Gate serializes consent surfaces: a new cycle may only open a prompt
// after the previous one resolved. A cycle that finds the gate held
// fails fast instead of stacking prompts.
type Gate struct {
	inner Mediator
	mu    sync.Mutex
	busy  bool
}

// NewGate wraps a mediator with the no-overlapping-prompts guarantee.
func NewGate(inner Mediator) *Gate {
	return &Gate{inner: inner}
}

// Present opens the wrapped surface if no other prompt is open.
func (g *Gate) Present(ctx context.Context, offer Offer) (*Choice, error) {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return nil, fmt.Errorf("consent surface already open")
	}
	g.busy = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}()

	return g.inner.Present(ctx, offer)
}
