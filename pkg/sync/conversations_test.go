package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"confmatch/pkg/models"
)

type fakeSource struct {
	items []models.Conversation
	err   error
	calls int
}

func (f *fakeSource) Conversations(ctx context.Context) ([]models.Conversation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func conv(id, email string, at time.Time, unread int) models.Conversation {
	return models.Conversation{
		ID:             id,
		OtherParty:     models.Party{ID: "u-" + id, Name: email, Email: email},
		LastActivityAt: at,
		UnreadCount:    unread,
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	now := time.Now()
	src := &fakeSource{items: []models.Conversation{
		conv("c1", "a@conf.org", now.Add(-time.Hour), 0),
		conv("c2", "b@conf.org", now, 2),
	}}
	s := NewStore(src)
	if err := s.Refresh(context.Background(), "test"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got := s.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}
	if got[0].ID != "c2" {
		t.Fatalf("newest activity should sort first, got %s", got[0].ID)
	}

	// second fetch returns a different set; nothing from the first survives
	src.items = []models.Conversation{conv("c3", "c@conf.org", now, 0)}
	if err := s.Refresh(context.Background(), "test"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got = s.List()
	if len(got) != 1 || got[0].ID != "c3" {
		t.Fatalf("refresh should replace wholesale, got %+v", got)
	}
}

func TestRefreshFailureKeepsState(t *testing.T) {
	src := &fakeSource{items: []models.Conversation{conv("c1", "a@conf.org", time.Now(), 0)}}
	s := NewStore(src)
	if err := s.Refresh(context.Background(), "test"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	src.err = errors.New("boom")
	if err := s.Refresh(context.Background(), "test"); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.List(); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("failed refresh must keep previous state, got %+v", got)
	}
}

func TestProvisionalConversations(t *testing.T) {
	now := time.Now()
	src := &fakeSource{items: []models.Conversation{conv("c1", "known@conf.org", now, 0)}}
	s := NewStore(src)
	s.SetContacts([]models.Party{
		{Name: "Known", Email: "KNOWN@conf.org"},
		{Name: "New", Email: "new@conf.org"},
	})
	if err := s.Refresh(context.Background(), "test"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got := s.List()
	if len(got) != 2 {
		t.Fatalf("expected persisted + 1 provisional, got %d", len(got))
	}
	// persisted entries sort before never-active provisional ones
	if got[0].ID != "c1" {
		t.Fatalf("persisted conversation should sort first, got %s", got[0].ID)
	}
	p := got[1]
	if !p.Provisional {
		t.Fatalf("expected provisional entry")
	}
	if p.ID != models.ProvisionalID("new@conf.org") {
		t.Fatalf("unexpected provisional id %s", p.ID)
	}
}

func TestMergeDedupsByEmail(t *testing.T) {
	now := time.Now()
	src := &fakeSource{items: []models.Conversation{
		conv("c1", "dup@conf.org", now, 0),
		conv("c2", "DUP@conf.org", now.Add(-time.Minute), 0),
	}}
	s := NewStore(src)
	if err := s.Refresh(context.Background(), "test"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := s.List(); len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("expected one entry per email, got %+v", got)
	}
}

func TestAfterReplaceObservesList(t *testing.T) {
	src := &fakeSource{items: []models.Conversation{conv("c1", "a@conf.org", time.Now(), 0)}}
	s := NewStore(src)
	var observed []models.Conversation
	s.AfterReplace = func(items []models.Conversation) { observed = items }
	if err := s.Refresh(context.Background(), "test"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(observed) != 1 {
		t.Fatalf("AfterReplace not called with refreshed list")
	}
}
