package models

import "time"

// Live channel event names. Field names below match the platform wire
// format exactly; do not rename tags.
const (
	EvJoinUser            = "join_user"
	EvSendMessage         = "send_message"
	EvTyping              = "typing"
	EvMarkRead            = "mark_read"
	EvReceiveMessage      = "receive_message"
	EvTypingStatus        = "typing_status"
	EvMessageStatusUpdate = "message_status_update"
	EvMessagesRead        = "messages_read"
	EvConversationUpdated = "conversation_updated"
	EvMessageBlocked      = "message_blocked"
)

// WireMessage is an incoming receive_message payload. Older backends put
// the body in `text`, newer ones in `content`; Body() folds them.
type WireMessage struct {
	ID             string    `json:"id,omitempty"`
	Content        string    `json:"content,omitempty"`
	Text           string    `json:"text,omitempty"`
	SenderID       string    `json:"sender_id,omitempty"`
	SenderEmail    string    `json:"sender_email,omitempty"`
	ReceiverID     string    `json:"receiver_id,omitempty"`
	ReceiverEmail  string    `json:"receiver_email,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitzero"`
	Status         string    `json:"status,omitempty"`
}

func (m WireMessage) Body() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Text
}

// TypingStatus reports another party starting or stopping typing.
type TypingStatus struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// StatusUpdate advances a single message's delivery state.
type StatusUpdate struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// ReadReceipt acknowledges a batch of messages as read.
type ReadReceipt struct {
	ConversationID string   `json:"conversationId"`
	MessageIDs     []string `json:"messageIds"`
}

// ConversationUpdate signals that a conversation summary changed. When the
// server fans the event out as a broadcast it tags the intended recipient.
type ConversationUpdate struct {
	Conversation
	Broadcast     bool   `json:"_broadcast,omitempty"`
	ReceiverEmail string `json:"_receiver_email,omitempty"`
}

// Blocked is a moderation rejection. The message was never persisted.
type Blocked struct {
	Reason  string `json:"reason"`
	Content string `json:"content,omitempty"`
}

// SendMessage is the outgoing send intent.
type SendMessage struct {
	SenderID      string `json:"sender_id"`
	SenderEmail   string `json:"sender_email"`
	ReceiverID    string `json:"receiver_id,omitempty"`
	ReceiverEmail string `json:"receiver_email"`
	Content       string `json:"content"`
}

// Typing is the outgoing typing start/stop intent.
type Typing struct {
	ReceiverID    string `json:"receiver_id,omitempty"`
	ReceiverEmail string `json:"receiver_email"`
	IsTyping      bool   `json:"isTyping"`
}

// MarkRead is the outgoing read intent for a whole conversation.
type MarkRead struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}
