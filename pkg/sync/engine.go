// Package sync implements the client-side chat reconciliation state
// machine: one conversation store, one timeline for the open
// conversation, and the policy deciding what every live event mutates.
package sync

import (
	"context"
	"errors"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/time/rate"

	"confmatch/pkg/logger"
	"confmatch/pkg/models"
	"confmatch/pkg/session"
	"confmatch/pkg/socket"
	"confmatch/pkg/telemetry"
)

const engineBindKey = "sync-engine"

// ErrNoConversation is returned for send attempts with nothing selected.
var ErrNoConversation = errors.New("sync: no conversation selected")

// Platform is the REST surface the engine consumes. *api.Client
// satisfies it.
type Platform interface {
	ConversationSource
	ConversationMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID string) error
}

// CacheSink receives write-through copies of synchronized state. Optional.
type CacheSink interface {
	PutConversations([]models.Conversation)
	PutMessages(conversationID string, msgs []models.Message)
	PutMessage(conversationID string, m models.Message)
}

// Notice is a moderation rejection surfaced to the user. It never touches
// the timeline: the rejected message was never persisted.
type Notice struct {
	Reason  string
	Content string
	At      time.Time
}

// Engine binds the live channel to the stores and applies the
// reconciliation policy. It does not own the channel connection: the
// page-level owner creates and closes it, the engine only (re)binds
// listeners, so conversation switches never drop the connection.
type Engine struct {
	api      Platform
	channel  socket.Channel
	self     session.Identity
	store    *Store
	timeline *Timeline
	typing   *TypingSet

	debounce    time.Duration
	typingIdle  time.Duration
	noticeTTL   time.Duration
	typingLimit *rate.Limiter

	mu           gosync.Mutex
	active       *models.Conversation
	loadGen      uint64
	refreshTimer *time.Timer
	idleTimer    *time.Timer
	notice       *Notice
	noticeTimer  *time.Timer
	cache        CacheSink
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce overrides the event-driven refresh debounce (default 500ms).
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithTypingIdle overrides the sender-side typing inactivity window
// (default 1s).
func WithTypingIdle(d time.Duration) Option {
	return func(e *Engine) { e.typingIdle = d }
}

// WithNoticeTTL overrides how long a moderation notice stays up
// (default 10s).
func WithNoticeTTL(d time.Duration) Option {
	return func(e *Engine) { e.noticeTTL = d }
}

func NewEngine(api Platform, channel socket.Channel, self session.Identity, opts ...Option) *Engine {
	e := &Engine{
		api:        api,
		channel:    channel,
		self:       self,
		store:      NewStore(api),
		timeline:   NewTimeline(),
		typing:     NewTypingSet(),
		debounce:   500 * time.Millisecond,
		typingIdle: time.Second,
		noticeTTL:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	// typing-start intents are cheap but chatty; cap the outgoing rate
	e.typingLimit = rate.NewLimiter(rate.Every(e.typingIdle/2), 1)
	return e
}

// SetCache installs a write-through cache sink.
func (e *Engine) SetCache(c CacheSink) {
	e.mu.Lock()
	e.cache = c
	e.mu.Unlock()
	e.store.AfterReplace = func(items []models.Conversation) {
		c.PutConversations(items)
	}
}

// Store exposes the conversation store (read paths and contact seeding).
func (e *Engine) Store() *Store { return e.store }

// Attach binds the engine's listeners on the shared channel. Idempotent:
// a remount rebinds the same key without duplicating listeners.
func (e *Engine) Attach() {
	if e.channel == nil {
		return
	}
	e.channel.Bind(engineBindKey, socket.Handlers{
		OnMessage:      e.handleMessage,
		OnTyping:       e.handleTyping,
		OnStatus:       e.handleStatus,
		OnRead:         e.handleRead,
		OnConversation: e.handleConversationUpdate,
		OnBlocked:      e.handleBlocked,
	})
}

// Detach removes the engine's listeners. The connection itself stays up;
// closing it is the owner's job alone.
func (e *Engine) Detach() {
	if e.channel == nil {
		return
	}
	e.channel.Unbind(engineBindKey)
	e.mu.Lock()
	if e.refreshTimer != nil {
		e.refreshTimer.Stop()
	}
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	if e.noticeTimer != nil {
		e.noticeTimer.Stop()
	}
	e.mu.Unlock()
}

// SelectConversation switches the open conversation: timeline and
// identity tracker are cleared immediately, then the history is fetched.
// A response landing after another switch is discarded, keyed by load
// generation, so slow responses can never leak into the wrong timeline.
func (e *Engine) SelectConversation(ctx context.Context, conv models.Conversation) error {
	e.mu.Lock()
	c := conv
	e.active = &c
	e.loadGen++
	gen := e.loadGen
	e.mu.Unlock()

	e.timeline.Reset()
	e.typing.Clear()

	if conv.Provisional {
		// nothing persisted yet for this contact
		return nil
	}

	msgs, err := e.api.ConversationMessages(ctx, conv.ID)
	if err != nil {
		logger.Warn("timeline_load_failed", "conversation", conv.ID, "error", err)
		return err
	}

	// staleness check and populate share one critical section so a
	// select completing in between cannot be overwritten by this load
	e.mu.Lock()
	if gen != e.loadGen {
		e.mu.Unlock()
		telemetry.StaleLoadsDiscarded.Inc()
		logger.Debug("timeline_load_discarded", "conversation", conv.ID)
		return nil
	}
	e.timeline.Populate(msgs)
	cache := e.cache
	e.mu.Unlock()

	if cache != nil {
		cache.PutMessages(conv.ID, msgs)
	}
	logger.Debug("timeline_loaded", "conversation", conv.ID, "messages", len(msgs))

	if conv.UnreadCount > 0 {
		if err := e.api.MarkConversationRead(ctx, conv.ID); err != nil {
			logger.Warn("mark_read_failed", "conversation", conv.ID, "error", err)
		} else if e.channel != nil {
			_ = e.channel.MarkRead(models.MarkRead{ConversationID: conv.ID, UserID: e.self.ID})
		}
		go func() {
			_ = e.store.Refresh(context.Background(), "select")
		}()
	}
	return nil
}

// Send emits a send-message intent for the open conversation. There is no
// optimistic local echo: the message appears through the channel's own
// echo or the next refresh, and the dedup gates keep it single.
func (e *Engine) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	e.mu.Lock()
	active := e.active
	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
	e.mu.Unlock()
	if active == nil {
		return ErrNoConversation
	}
	if e.channel == nil {
		return socket.ErrClosed
	}

	other := active.OtherParty
	_ = e.channel.Typing(models.Typing{ReceiverID: other.ID, ReceiverEmail: other.Email, IsTyping: false})
	if err := e.channel.SendMessage(models.SendMessage{
		SenderID:      e.self.ID,
		SenderEmail:   e.self.Email,
		ReceiverID:    other.ID,
		ReceiverEmail: other.Email,
		Content:       text,
	}); err != nil {
		return err
	}
	e.scheduleRefresh("send")
	return nil
}

// InputActivity reports that the user is composing. It emits a throttled
// typing-start intent and arms the inactivity timer that emits the stop.
func (e *Engine) InputActivity() {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active == nil || e.channel == nil {
		return
	}
	other := active.OtherParty

	if e.typingLimit.Allow() {
		_ = e.channel.Typing(models.Typing{ReceiverID: other.ID, ReceiverEmail: other.Email, IsTyping: true})
	}

	e.mu.Lock()
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(e.typingIdle, func() {
		_ = e.channel.Typing(models.Typing{ReceiverID: other.ID, ReceiverEmail: other.Email, IsTyping: false})
	})
	e.mu.Unlock()
}

// handleMessage is the reconciliation policy for receive_message:
// relevance, the id gate, the content+time gate, then sorted insert plus
// a debounced store refresh.
func (e *Engine) handleMessage(w models.WireMessage) {
	fromSelf := e.isSelf(w.SenderID, w.SenderEmail)
	toSelf := e.isSelf(w.ReceiverID, w.ReceiverEmail)

	e.mu.Lock()
	active := e.active
	cache := e.cache
	e.mu.Unlock()

	relevant := false
	if active != nil {
		switch {
		case w.ConversationID != "" && w.ConversationID == active.ID:
			relevant = true
		case fromSelf && active.OtherParty.SameAs(w.ReceiverID, w.ReceiverEmail):
			relevant = true
		case toSelf && active.OtherParty.SameAs(w.SenderID, w.SenderEmail):
			relevant = true
		}
	}

	if relevant && (fromSelf || toSelf) {
		ts := w.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		status := models.DeliveryState(w.Status)
		if status.Rank() == 0 {
			status = models.StateDelivered
		}
		m := models.Message{
			ID:        w.ID,
			Text:      w.Body(),
			FromSelf:  fromSelf,
			AuthorID:  w.SenderID,
			CreatedAt: ts,
			Status:    status,
		}
		if e.timeline.AppendIncoming(m) {
			if cache != nil && active != nil {
				cache.PutMessage(active.ID, m)
			}
		} else {
			logger.Debug("message_suppressed", "id", w.ID)
		}
	}

	// previews and unread counts move even for background conversations
	if fromSelf || toSelf {
		e.scheduleRefresh("event")
	}
}

func (e *Engine) handleTyping(t models.TypingStatus) {
	e.typing.Set(t.UserID, t.IsTyping)
}

func (e *Engine) handleStatus(s models.StatusUpdate) {
	e.timeline.ApplyStatus(s.MessageID, models.DeliveryState(s.Status))
}

func (e *Engine) handleRead(r models.ReadReceipt) {
	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active != nil && r.ConversationID == active.ID {
		e.timeline.ApplyReadReceipt(r.MessageIDs)
	}
	e.scheduleRefresh("event")
}

// handleConversationUpdate never patches fields: it triggers a wholesale
// refresh, and never mutates the open timeline.
func (e *Engine) handleConversationUpdate(u models.ConversationUpdate) {
	if u.Broadcast && u.ReceiverEmail != "" && !strings.EqualFold(u.ReceiverEmail, e.self.Email) {
		logger.Debug("conversation_update_ignored", "receiver", u.ReceiverEmail)
		return
	}
	go func() {
		_ = e.store.Refresh(context.Background(), "event")
	}()
}

func (e *Engine) handleBlocked(b models.Blocked) {
	reason := b.Reason
	if reason == "" {
		reason = "This message violates community guidelines."
	}
	e.mu.Lock()
	e.notice = &Notice{Reason: reason, Content: b.Content, At: time.Now()}
	if e.noticeTimer != nil {
		e.noticeTimer.Stop()
	}
	e.noticeTimer = time.AfterFunc(e.noticeTTL, e.DismissNotice)
	e.mu.Unlock()
	logger.Warn("message_blocked", "reason", reason)
}

// Notice returns the current moderation notice, if any.
func (e *Engine) Notice() *Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notice
}

// DismissNotice clears the moderation notice.
func (e *Engine) DismissNotice() {
	e.mu.Lock()
	e.notice = nil
	if e.noticeTimer != nil {
		e.noticeTimer.Stop()
		e.noticeTimer = nil
	}
	e.mu.Unlock()
}

// scheduleRefresh debounces store refreshes so event bursts collapse into
// one round trip. The open timeline is never touched by these.
func (e *Engine) scheduleRefresh(trigger string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refreshTimer != nil {
		e.refreshTimer.Stop()
	}
	e.refreshTimer = time.AfterFunc(e.debounce, func() {
		_ = e.store.Refresh(context.Background(), trigger)
	})
}

func (e *Engine) isSelf(id, email string) bool {
	if id != "" && id == e.self.ID {
		return true
	}
	return email != "" && strings.EqualFold(email, e.self.Email)
}

// ActiveConversation returns a copy of the open conversation, if any.
func (e *Engine) ActiveConversation() (models.Conversation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return models.Conversation{}, false
	}
	return *e.active, true
}

// Conversations returns the ordered conversation list.
func (e *Engine) Conversations() []models.Conversation { return e.store.List() }

// Messages returns the open timeline.
func (e *Engine) Messages() []models.Message { return e.timeline.Messages() }

// TypingParties returns who is typing right now.
func (e *Engine) TypingParties() []string { return e.typing.Active() }

// Timeline exposes the timeline for tests and presentation helpers.
func (e *Engine) Timeline() *Timeline { return e.timeline }
