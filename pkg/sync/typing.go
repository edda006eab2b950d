package sync

import gosync "sync"

// TypingSet tracks which other parties are currently signaling "typing"
// in the open conversation. Entries leave on an explicit stop event; the
// one-second inactivity window lives on the sender's side (see
// Engine.InputActivity), not here.
type TypingSet struct {
	mu  gosync.Mutex
	ids map[string]struct{}
}

func NewTypingSet() *TypingSet {
	return &TypingSet{ids: make(map[string]struct{})}
}

// Set records or removes a party's typing state.
func (t *TypingSet) Set(userID string, typing bool) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	if typing {
		t.ids[userID] = struct{}{}
	} else {
		delete(t.ids, userID)
	}
	t.mu.Unlock()
}

// Active returns the parties currently typing.
func (t *TypingSet) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	return out
}

// Clear empties the set. Called on conversation switch.
func (t *TypingSet) Clear() {
	t.mu.Lock()
	t.ids = make(map[string]struct{})
	t.mu.Unlock()
}
