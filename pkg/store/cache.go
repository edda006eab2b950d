// Package store persists a local copy of synchronized chat state in a
// Pebble database so the client can render a warm start before the first
// round trip completes. The platform stays the source of truth: every
// cached record is overwritten wholesale by the next successful fetch.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"confmatch/pkg/logger"
	"confmatch/pkg/models"
)

const (
	convPrefix = "conv:"
	msgPrefix  = "msg:"
)

// Cache is an on-disk mirror of conversation summaries and message
// histories. Keys:
//
//	conv:<conversationID>                        summary JSON
//	msg:<conversationID>:<unix_nano_padded>-<id> message JSON
//
// The padded timestamp keeps messages iterable in creation order.
type Cache struct {
	db   *pebble.DB
	path string
	seq  uint64
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("cache_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("cache_opened", "path", path)
	return &Cache{db: db, path: path}, nil
}

// Close closes the database. The cache is unusable afterwards.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	logger.Info("cache_closed", "path", c.path)
	return err
}

// Ready reports whether the cache is open.
func (c *Cache) Ready() bool { return c != nil && c.db != nil }

// Path returns the database directory.
func (c *Cache) Path() string { return c.path }

// PutConversations replaces the cached summary set wholesale. Provisional
// entries are skipped: they are synthesized from contacts on every start
// and caching them would resurrect stale ones.
func (c *Cache) PutConversations(items []models.Conversation) {
	if !c.Ready() {
		return
	}
	b := c.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange([]byte(convPrefix), prefixEnd(convPrefix), nil); err != nil {
		logger.Warn("cache_conversations_clear_failed", "error", err)
		return
	}
	for _, conv := range items {
		if conv.Provisional || conv.ID == "" {
			continue
		}
		data, err := json.Marshal(conv)
		if err != nil {
			continue
		}
		if err := b.Set([]byte(convPrefix+conv.ID), data, nil); err != nil {
			logger.Warn("cache_conversation_put_failed", "conversation", conv.ID, "error", err)
			return
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Warn("cache_conversations_commit_failed", "error", err)
	}
}

// LoadConversations returns every cached summary, unordered. Callers sort.
func (c *Cache) LoadConversations() ([]models.Conversation, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("cache not opened")
	}
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(convPrefix),
		UpperBound: prefixEnd(convPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Conversation
	for iter.First(); iter.Valid(); iter.Next() {
		var conv models.Conversation
		if err := json.Unmarshal(iter.Value(), &conv); err != nil {
			logger.Warn("cache_conversation_decode_failed", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, conv)
	}
	return out, iter.Error()
}

// PutMessage writes one message. The key embeds the message id, so
// writing the same message twice is an overwrite, not a duplicate.
func (c *Cache) PutMessage(conversationID string, m models.Message) {
	if !c.Ready() || conversationID == "" {
		return
	}
	if err := c.db.Set(c.messageKey(conversationID, m), mustMarshal(m), pebble.NoSync); err != nil {
		logger.Warn("cache_message_put_failed", "conversation", conversationID, "error", err)
	}
}

// PutMessages replaces a conversation's cached history with the given set.
func (c *Cache) PutMessages(conversationID string, msgs []models.Message) {
	if !c.Ready() || conversationID == "" {
		return
	}
	prefix := msgPrefix + conversationID + ":"
	b := c.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange([]byte(prefix), prefixEnd(prefix), nil); err != nil {
		logger.Warn("cache_messages_clear_failed", "conversation", conversationID, "error", err)
		return
	}
	for _, m := range msgs {
		if err := b.Set(c.messageKey(conversationID, m), mustMarshal(m), nil); err != nil {
			logger.Warn("cache_message_put_failed", "conversation", conversationID, "error", err)
			return
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Warn("cache_messages_commit_failed", "conversation", conversationID, "error", err)
	}
}

// LoadMessages returns a conversation's cached history in creation order.
func (c *Cache) LoadMessages(conversationID string) ([]models.Message, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("cache not opened")
	}
	prefix := msgPrefix + conversationID + ":"
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			logger.Warn("cache_message_decode_failed", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, iter.Error()
}

// PurgeMessagesBefore deletes cached messages whose key timestamp is
// older than cutoff and returns how many were removed. Summaries are
// never purged; they are rewritten on every refresh anyway.
func (c *Cache) PurgeMessagesBefore(cutoff time.Time) (int, error) {
	if !c.Ready() {
		return 0, fmt.Errorf("cache not opened")
	}
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(msgPrefix),
		UpperBound: prefixEnd(msgPrefix),
	})
	if err != nil {
		return 0, err
	}
	b := c.db.NewBatch()
	defer b.Close()
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		ts, ok := keyTimestamp(iter.Key())
		if !ok || !ts.Before(cutoff) {
			continue
		}
		if err := b.Delete(append([]byte(nil), iter.Key()...), nil); err != nil {
			iter.Close()
			return n, err
		}
		n++
	}
	if err := iter.Close(); err != nil {
		return n, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	logger.Info("cache_messages_purged", "count", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	return n, nil
}

// messageKey builds msg:<conv>:<unix_nano_padded>-<suffix>. The suffix is
// the message id when present, otherwise a process-local counter to keep
// same-nanosecond writes from colliding.
func (c *Cache) messageKey(conversationID string, m models.Message) []byte {
	ts := m.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	suffix := m.ID
	if suffix == "" {
		suffix = fmt.Sprintf("%06d", atomic.AddUint64(&c.seq, 1))
	}
	return []byte(fmt.Sprintf("%s%s:%020d-%s", msgPrefix, conversationID, ts.UnixNano(), suffix))
}

// keyTimestamp extracts the padded timestamp from a message key.
func keyTimestamp(key []byte) (time.Time, bool) {
	i := bytes.LastIndexByte(key, ':')
	if i < 0 || i+21 > len(key) {
		return time.Time{}, false
	}
	digits := string(key[i+1 : i+21])
	nanos, err := strconv.ParseInt(strings.TrimLeft(digits, "0"), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
