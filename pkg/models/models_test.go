package models

import (
	"encoding/json"
	"testing"
)

func TestPartySameAs(t *testing.T) {
	p := Party{ID: "u1", Email: "alice@conf.org"}

	if !p.SameAs("u1", "") {
		t.Fatalf("id match should win")
	}
	if p.SameAs("u2", "alice@conf.org") {
		t.Fatalf("conflicting ids must not match even with equal emails")
	}
	if !p.SameAs("", "ALICE@conf.org") {
		t.Fatalf("email comparison should be case-insensitive")
	}
	if (Party{}).SameAs("", "") {
		t.Fatalf("two empty identities never match")
	}
}

func TestDeliveryStateRank(t *testing.T) {
	if !(StateSent.Rank() < StateDelivered.Rank() && StateDelivered.Rank() < StateRead.Rank()) {
		t.Fatalf("rank order broken")
	}
	if DeliveryState("whatever").Rank() != 0 {
		t.Fatalf("unknown states must rank zero")
	}
}

func TestProvisionalID(t *testing.T) {
	if got := ProvisionalID("New.Person@Conf.org"); got != "user-new.person@conf.org" {
		t.Fatalf("unexpected provisional id %q", got)
	}
}

func TestWireMessageBody(t *testing.T) {
	if (WireMessage{Content: "a", Text: "b"}).Body() != "a" {
		t.Fatalf("content should win over text")
	}
	if (WireMessage{Text: "b"}).Body() != "b" {
		t.Fatalf("text is the fallback")
	}
}

func TestConversationJSONTags(t *testing.T) {
	data := []byte(`{
		"id": "c1",
		"otherUser": {"id": "u2", "name": "Alice", "email": "alice@conf.org"},
		"lastMessage": {"id": "m9", "text": "see you there", "isFromMe": true},
		"lastMessageAt": "2026-03-14T10:30:00Z",
		"unreadCount": 4
	}`)
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.OtherParty.Email != "alice@conf.org" {
		t.Fatalf("otherUser not mapped: %+v", c.OtherParty)
	}
	if c.LastMessage == nil || !c.LastMessage.FromSelf {
		t.Fatalf("isFromMe not mapped: %+v", c.LastMessage)
	}
	if c.UnreadCount != 4 || c.LastActivityAt.IsZero() {
		t.Fatalf("summary fields not mapped: %+v", c)
	}
}
