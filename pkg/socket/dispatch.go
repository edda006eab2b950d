package socket

import (
	"encoding/json"

	"confmatch/pkg/logger"
	"confmatch/pkg/models"
	"confmatch/pkg/telemetry"
)

// dispatch decodes one incoming envelope and fans it out to every bound
// handler set. Decode failures are logged and dropped; an unknown event
// name is not an error (the server may be newer than this client).
func (c *Conn) dispatch(env envelope) {
	c.mu.RLock()
	handlers := make([]Handlers, 0, len(c.bindings))
	for _, h := range c.bindings {
		handlers = append(handlers, h)
	}
	c.mu.RUnlock()

	telemetry.EventsReceived.WithLabelValues(env.Event).Inc()

	switch env.Event {
	case models.EvReceiveMessage:
		var m models.WireMessage
		if !decode(env, &m) {
			return
		}
		for _, h := range handlers {
			if h.OnMessage != nil {
				h.OnMessage(m)
			}
		}
	case models.EvTypingStatus:
		var t models.TypingStatus
		if !decode(env, &t) {
			return
		}
		for _, h := range handlers {
			if h.OnTyping != nil {
				h.OnTyping(t)
			}
		}
	case models.EvMessageStatusUpdate:
		var s models.StatusUpdate
		if !decode(env, &s) {
			return
		}
		for _, h := range handlers {
			if h.OnStatus != nil {
				h.OnStatus(s)
			}
		}
	case models.EvMessagesRead:
		var r models.ReadReceipt
		if !decode(env, &r) {
			return
		}
		for _, h := range handlers {
			if h.OnRead != nil {
				h.OnRead(r)
			}
		}
	case models.EvConversationUpdated:
		var u models.ConversationUpdate
		if !decode(env, &u) {
			return
		}
		for _, h := range handlers {
			if h.OnConversation != nil {
				h.OnConversation(u)
			}
		}
	case models.EvMessageBlocked:
		var b models.Blocked
		if !decode(env, &b) {
			return
		}
		for _, h := range handlers {
			if h.OnBlocked != nil {
				h.OnBlocked(b)
			}
		}
	default:
		logger.Debug("socket_event_ignored", "event", env.Event)
	}
}

func decode(env envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		logger.Warn("socket_decode_failed", "event", env.Event, "error", err)
		return false
	}
	return true
}
