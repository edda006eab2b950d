package sync

import (
	"sort"
	gosync "sync"
	"time"

	"confmatch/pkg/models"
	"confmatch/pkg/telemetry"
)

// contentDedupWindow is the second dedup gate: an incoming message whose
// text matches an existing entry created within this window is treated as
// a duplicate even without an id collision. This covers messages that
// arrive through more than one path before their persisted id is known.
const contentDedupWindow = 2 * time.Second

// Timeline is the ordered message list of the open conversation. Ordering
// is non-decreasing createdAt; ties keep arrival order. The timeline owns
// its SeenTracker and both are cleared together on conversation switch.
type Timeline struct {
	mu      gosync.Mutex
	entries []models.Message
	seen    *SeenTracker
}

func NewTimeline() *Timeline {
	return &Timeline{seen: NewSeenTracker()}
}

// Reset clears both the entries and the identity tracker. Called before
// a new conversation's load is applied.
func (t *Timeline) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.seen.Clear()
	t.mu.Unlock()
	telemetry.TimelineSize.Set(0)
}

// Populate replaces the timeline with a fetched history: sorted ascending
// by createdAt (stable, so equal timestamps keep fetch order) with every
// id marked seen.
func (t *Timeline) Populate(msgs []models.Message) {
	sorted := append([]models.Message(nil), msgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	t.mu.Lock()
	t.entries = sorted
	t.seen.Clear()
	for _, m := range sorted {
		t.seen.Mark(m.ID)
	}
	t.mu.Unlock()
	telemetry.TimelineSize.Set(float64(len(sorted)))
}

// AppendIncoming applies the two dedup gates and inserts the message in
// sorted position. Returns false when the message was suppressed.
func (t *Timeline) AppendIncoming(m models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen.Seen(m.ID) {
		telemetry.DuplicatesSuppressed.WithLabelValues("id").Inc()
		return false
	}
	for _, e := range t.entries {
		if e.Text == m.Text && absDuration(e.CreatedAt.Sub(m.CreatedAt)) < contentDedupWindow {
			telemetry.DuplicatesSuppressed.WithLabelValues("content").Inc()
			return false
		}
	}
	t.seen.Mark(m.ID)

	// insert before the first strictly-later entry; equal createdAt lands
	// after existing entries, preserving arrival order
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].CreatedAt.After(m.CreatedAt)
	})
	t.entries = append(t.entries, models.Message{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = m
	telemetry.TimelineSize.Set(float64(len(t.entries)))
	return true
}

// ApplyStatus advances one message's delivery state. Transitions only go
// forward; a regressing update is ignored, as is an unknown id (it may
// belong to a page that is not loaded).
func (t *Timeline) ApplyStatus(id string, state models.DeliveryState) bool {
	if state.Rank() == 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id && id != "" {
			if state.Rank() <= t.entries[i].Status.Rank() {
				return false
			}
			t.entries[i].Status = state
			return true
		}
	}
	return false
}

// ApplyReadReceipt marks a batch of ids read, returning how many entries
// actually advanced.
func (t *Timeline) ApplyReadReceipt(ids []string) int {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.entries {
		if _, ok := set[t.entries[i].ID]; !ok {
			continue
		}
		if models.StateRead.Rank() > t.entries[i].Status.Rank() {
			t.entries[i].Status = models.StateRead
			n++
		}
	}
	return n
}

// Messages returns a copy of the ordered timeline.
func (t *Timeline) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Message(nil), t.entries...)
}

// Seen exposes the identity tracker for callers that pre-mark ids.
func (t *Timeline) Seen() *SeenTracker { return t.seen }

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
