package view

import "sync"

// DeleteGuard implements tap-to-arm, tap-to-confirm deletion: the first tap
// on a row arms it, a second tap on the same row confirms. Tapping another
// row moves the arm there.
type DeleteGuard struct {
	mu    sync.Mutex
	armed string
}

// Tap reports whether the delete of id is confirmed. A confirmed tap disarms
// the guard.
func (g *DeleteGuard) Tap(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id != "" && g.armed == id {
		g.armed = ""
		return true
	}
	g.armed = id
	return false
}

// Armed returns the id waiting for confirmation, if any.
func (g *DeleteGuard) Armed() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

func (g *DeleteGuard) Reset() {
	g.mu.Lock()
	g.armed = ""
	g.mu.Unlock()
}
