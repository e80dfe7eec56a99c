// Package rebuild decides when a target is rebuilt.
//
// Two layers guard every rebuild. The Gate drops change events that arrive
// within the debounce window of the previous admitted event for the same
// target, so redundant work is never dispatched. The Job re-checks the window
// under the target's lock right before rendering; it is the point that
// guarantees at most one render per target at a time.
package rebuild

import (
	"sync"
	"time"
)

// Gate is the routing-layer debounce, keyed by target name.
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewGate creates a Gate with the given window.
func NewGate(window time.Duration) *Gate {
	return &Gate{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Admit reports whether an event for name passes the gate, and records it
// as the latest admitted event when it does.
func (g *Gate) Admit(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[name]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[name] = now
	return true
}
