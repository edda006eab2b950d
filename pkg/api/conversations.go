package api

import (
	"context"
	"time"

	"confmatch/pkg/models"
)

// restMessage tolerates both field generations the platform has used for
// message bodies and timestamps.
type restMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Content   string    `json:"content"`
	FromSelf  bool      `json:"isFromMe"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

func (m restMessage) normalize() models.Message {
	text := m.Text
	if text == "" {
		text = m.Content
	}
	ts := m.Timestamp
	if ts.IsZero() {
		ts = m.CreatedAt
	}
	status := models.DeliveryState(m.Status)
	if status.Rank() == 0 {
		status = models.StateSent
	}
	return models.Message{
		ID:        m.ID,
		Text:      text,
		FromSelf:  m.FromSelf,
		AuthorID:  m.SenderID,
		CreatedAt: ts,
		Status:    status,
	}
}

// Conversations lists the current user's conversation summaries.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var res struct {
		Data []models.Conversation `json:"data"`
	}
	if err := c.do(ctx, "GET", "/conversations", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ConversationMessages fetches the full persisted timeline of one
// conversation, normalized but not yet sorted.
func (c *Client) ConversationMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var res struct {
		Data []restMessage `json:"data"`
	}
	if err := c.do(ctx, "GET", "/conversations/"+conversationID+"/messages", nil, &res); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(res.Data))
	for _, m := range res.Data {
		out = append(out, m.normalize())
	}
	return out, nil
}

// MarkConversationRead marks every unread message in the conversation as
// read. No body on either side.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	return c.do(ctx, "POST", "/conversations/"+conversationID+"/read", nil, nil)
}
