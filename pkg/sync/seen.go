package sync

import "sync"

// SeenTracker records message ids already applied to the open timeline so
// duplicate deliveries can be suppressed in O(1). Its scope is one open
// conversation: switching conversations clears it in full.
type SeenTracker struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSeenTracker() *SeenTracker {
	return &SeenTracker{ids: make(map[string]struct{})}
}

// Seen reports whether the id was already marked. Empty ids are never
// considered seen; messages without a stable id fall through to the
// content heuristic instead.
func (t *SeenTracker) Seen(id string) bool {
	if id == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

// Mark records an id. Marking the empty id is a no-op.
func (t *SeenTracker) Mark(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	t.ids[id] = struct{}{}
	t.mu.Unlock()
}

// Clear drops every recorded id.
func (t *SeenTracker) Clear() {
	t.mu.Lock()
	t.ids = make(map[string]struct{})
	t.mu.Unlock()
}
