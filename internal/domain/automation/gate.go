package automation

import "sync"

// Gate grants exclusive access to the shared input channel. Recording
// and replay both go through it so they can never run concurrently.
type Gate struct {
	mu    sync.Mutex
	owner string
}

// TryAcquire claims the gate for owner. Returns false if another
// owner already holds it.
func (g *Gate) TryAcquire(owner string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner != "" {
		return false
	}
	g.owner = owner
	return true
}

// Release frees the gate.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owner = ""
}

// Owner returns who holds the gate, or "" when free.
func (g *Gate) Owner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner
}
