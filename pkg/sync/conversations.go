package sync

import (
	"context"
	"sort"
	"strings"
	gosync "sync"

	"confmatch/pkg/logger"
	"confmatch/pkg/models"
	"confmatch/pkg/telemetry"
)

// ConversationSource lists the user's persisted conversation summaries.
// *api.Client satisfies it.
type ConversationSource interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
}

// Store holds the ordered conversation list: persisted summaries from the
// platform plus provisional entries synthesized from the contacts list.
// Refresh replaces the persisted set wholesale; there is no field-level
// merge, which keeps the store from drifting from the platform's view.
type Store struct {
	mu       gosync.RWMutex
	src      ConversationSource
	items    []models.Conversation
	contacts []models.Party

	// AfterReplace, when set, observes each successfully refreshed list
	// (used for cache write-through). Called without the store lock held.
	AfterReplace func([]models.Conversation)
}

func NewStore(src ConversationSource) *Store {
	return &Store{src: src}
}

// Refresh fetches the conversation list and replaces the store. On error
// the previous state is left intact; callers see no change.
func (s *Store) Refresh(ctx context.Context, trigger string) error {
	fetched, err := s.src.Conversations(ctx)
	if err != nil {
		logger.Warn("conversations_refresh_failed", "trigger", trigger, "error", err)
		return err
	}
	telemetry.Refreshes.WithLabelValues(trigger).Inc()

	s.mu.Lock()
	s.items = s.merge(fetched, s.contacts)
	replaced := append([]models.Conversation(nil), s.items...)
	after := s.AfterReplace
	s.mu.Unlock()

	logger.Debug("conversations_refreshed", "trigger", trigger, "count", len(replaced))
	if after != nil {
		after(replaced)
	}
	return nil
}

// SetContacts installs the contacts list used to synthesize provisional
// conversations and re-merges immediately.
func (s *Store) SetContacts(contacts []models.Party) {
	s.mu.Lock()
	s.contacts = contacts
	persisted := make([]models.Conversation, 0, len(s.items))
	for _, c := range s.items {
		if !c.Provisional {
			persisted = append(persisted, c)
		}
	}
	s.items = s.merge(persisted, contacts)
	s.mu.Unlock()
}

// Seed installs a conversation list without fetching, e.g. from the local
// cache before the first refresh completes.
func (s *Store) Seed(items []models.Conversation) {
	s.mu.Lock()
	s.items = s.merge(items, s.contacts)
	s.mu.Unlock()
}

// merge appends a provisional conversation for every contact not already
// represented by a persisted one (matched by email, case-insensitive),
// then sorts by last activity, newest first, no-activity entries last.
// At most one entry per distinct other-party email survives.
func (s *Store) merge(persisted []models.Conversation, contacts []models.Party) []models.Conversation {
	out := make([]models.Conversation, 0, len(persisted)+len(contacts))
	byEmail := make(map[string]struct{}, len(persisted))
	for _, c := range persisted {
		key := strings.ToLower(c.OtherParty.Email)
		if key != "" {
			if _, dup := byEmail[key]; dup {
				continue
			}
			byEmail[key] = struct{}{}
		}
		out = append(out, c)
	}
	for _, p := range contacts {
		key := strings.ToLower(p.Email)
		if key == "" {
			continue
		}
		if _, ok := byEmail[key]; ok {
			continue
		}
		byEmail[key] = struct{}{}
		out = append(out, models.Conversation{
			ID:          models.ProvisionalID(p.Email),
			OtherParty:  p,
			Provisional: true,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastActivityAt, out[j].LastActivityAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
	return out
}

// List returns a copy of the current ordered conversation list.
func (s *Store) List() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Conversation(nil), s.items...)
}

// Find returns the conversation with the given id.
func (s *Store) Find(id string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.items {
		if c.ID == id {
			return c, true
		}
	}
	return models.Conversation{}, false
}
