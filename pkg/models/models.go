package models

import (
	"strings"
	"time"
)

// Party identifies the other side of a conversation. Email is the stable
// identity; ID may be empty for contacts that never signed in.
type Party struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
}

// SameAs compares parties by id when both sides have one, falling back to
// case-insensitive email match.
func (p Party) SameAs(id, email string) bool {
	if p.ID != "" && id != "" {
		return p.ID == id
	}
	return p.Email != "" && strings.EqualFold(p.Email, email)
}

// LastMessage is the preview attached to a conversation summary.
type LastMessage struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	FromSelf bool   `json:"isFromMe"`
}

// Conversation is one thread between the current user and one other party.
// Provisional conversations are synthesized from the contacts list before
// any message has been exchanged; their ID is "user-<email>".
type Conversation struct {
	ID             string       `json:"id"`
	OtherParty     Party        `json:"otherUser"`
	LastMessage    *LastMessage `json:"lastMessage,omitempty"`
	LastActivityAt time.Time    `json:"lastMessageAt,omitzero"`
	UnreadCount    int          `json:"unreadCount"`
	Provisional    bool         `json:"-"`
}

// ProvisionalID synthesizes the conversation key used for a contact with
// no persisted conversation record yet.
func ProvisionalID(email string) string {
	return "user-" + strings.ToLower(email)
}

// DeliveryState is the sent/delivered/read status of a message. It only
// ever advances; see Rank.
type DeliveryState string

const (
	StateSent      DeliveryState = "sent"
	StateDelivered DeliveryState = "delivered"
	StateRead      DeliveryState = "read"
)

// Rank orders delivery states so callers can enforce forward-only
// transitions. Unknown states rank below sent and never win.
func (s DeliveryState) Rank() int {
	switch s {
	case StateSent:
		return 1
	case StateDelivered:
		return 2
	case StateRead:
		return 3
	}
	return 0
}

// Message is one timeline entry. ID is empty until the platform persists
// the message.
type Message struct {
	ID        string        `json:"id,omitempty"`
	Text      string        `json:"text"`
	FromSelf  bool          `json:"isFromMe"`
	AuthorID  string        `json:"sender_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Status    DeliveryState `json:"status,omitempty"`
}
