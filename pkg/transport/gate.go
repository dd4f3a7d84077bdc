package transport

import "sync"

// sessionGate serializes analysis requests per session. History order
// within a session is only defined when requests run one at a time; the
// gate enforces that at the transport boundary so the core stays free of
// cross-request arbitration.
type sessionGate struct {
	mu    sync.Mutex
	locks map[string]*gateEntry
}

type gateEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionGate() *sessionGate {
	return &sessionGate{locks: make(map[string]*gateEntry)}
}

// acquire blocks until the session's slot is free and returns the
// release function. Entries are dropped once unreferenced so deleted
// sessions leave nothing behind.
func (g *sessionGate) acquire(id string) func() {
	g.mu.Lock()
	e, ok := g.locks[id]
	if !ok {
		e = &gateEntry{}
		g.locks[id] = e
	}
	e.refs++
	g.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		g.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(g.locks, id)
		}
		g.mu.Unlock()
	}
}
