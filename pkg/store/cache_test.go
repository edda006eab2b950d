package store

import (
	"testing"
	"time"

	"confmatch/pkg/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutLoadConversations(t *testing.T) {
	c := openTestCache(t)
	now := time.Now().UTC().Truncate(time.Second)

	c.PutConversations([]models.Conversation{
		{ID: "c1", OtherParty: models.Party{Name: "Alice", Email: "alice@conf.org"}, LastActivityAt: now, UnreadCount: 2},
		{ID: "c2", OtherParty: models.Party{Name: "Bob", Email: "bob@conf.org"}},
		// provisional entries are never cached
		{ID: models.ProvisionalID("new@conf.org"), Provisional: true},
	})

	got, err := c.LoadConversations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cached summaries, got %d", len(got))
	}

	// next put replaces the whole set
	c.PutConversations([]models.Conversation{{ID: "c3", OtherParty: models.Party{Email: "x@conf.org"}}})
	got, err = c.LoadConversations()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c3" {
		t.Fatalf("put should replace wholesale, got %+v", got)
	}
}

func TestPutLoadMessagesOrdered(t *testing.T) {
	c := openTestCache(t)
	base := time.Now().UTC().Truncate(time.Second)

	c.PutMessages("c1", []models.Message{
		{ID: "m2", Text: "second", CreatedAt: base.Add(time.Minute)},
		{ID: "m1", Text: "first", CreatedAt: base},
	})
	c.PutMessage("c1", models.Message{ID: "m3", Text: "third", CreatedAt: base.Add(2 * time.Minute)})
	// re-writing an id overwrites instead of duplicating
	c.PutMessage("c1", models.Message{ID: "m3", Text: "third edited", CreatedAt: base.Add(2 * time.Minute)})

	got, err := c.LoadMessages("c1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	want := []string{"m1", "m2", "m3"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if got[2].Text != "third edited" {
		t.Fatalf("overwrite lost: %q", got[2].Text)
	}

	// other conversations are untouched
	other, err := c.LoadMessages("c2")
	if err != nil {
		t.Fatalf("load other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty history for c2, got %d", len(other))
	}
}

func TestPurgeMessagesBefore(t *testing.T) {
	c := openTestCache(t)
	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	c.PutMessages("c1", []models.Message{
		{ID: "m1", Text: "stale", CreatedAt: old},
		{ID: "m2", Text: "fresh", CreatedAt: recent},
	})

	n, err := c.PurgeMessagesBefore(time.Now().UTC().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	got, err := c.LoadMessages("c1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m2" {
		t.Fatalf("purge removed the wrong rows: %+v", got)
	}
}

func TestClosedCacheIsInert(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Ready() {
		t.Fatalf("closed cache reports ready")
	}
	// writes after close are dropped, not panics
	c.PutMessage("c1", models.Message{ID: "m1"})
	if _, err := c.LoadMessages("c1"); err == nil {
		t.Fatalf("load on closed cache should error")
	}
}
