package sync

import (
	"testing"
	"time"

	"confmatch/pkg/models"
)

func msg(id, text string, at time.Time) models.Message {
	return models.Message{ID: id, Text: text, CreatedAt: at, Status: models.StateSent}
}

func TestAppendIncomingSuppressesDuplicateID(t *testing.T) {
	tl := NewTimeline()
	now := time.Now()

	if !tl.AppendIncoming(msg("m1", "hello", now)) {
		t.Fatalf("first append should land")
	}
	if tl.AppendIncoming(msg("m1", "hello", now.Add(5*time.Second))) {
		t.Fatalf("duplicate id should be suppressed regardless of timestamp")
	}
	if got := len(tl.Messages()); got != 1 {
		t.Fatalf("expected 1 message, got %d", got)
	}
}

func TestAppendIncomingContentWindow(t *testing.T) {
	tl := NewTimeline()
	now := time.Now()

	tl.AppendIncoming(msg("m1", "see you at the poster session", now))

	// same text 900ms later under a different id is the same message
	// arriving via a second path
	if tl.AppendIncoming(msg("m2", "see you at the poster session", now.Add(900*time.Millisecond))) {
		t.Fatalf("same content within the window should be suppressed")
	}
	// same text well outside the window is a genuine repeat
	if !tl.AppendIncoming(msg("m3", "see you at the poster session", now.Add(10*time.Second))) {
		t.Fatalf("same content outside the window should land")
	}
	if got := len(tl.Messages()); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
}

func TestAppendIncomingKeepsOrder(t *testing.T) {
	tl := NewTimeline()
	base := time.Now()

	tl.AppendIncoming(msg("m1", "first", base))
	tl.AppendIncoming(msg("m3", "third", base.Add(2*time.Second)))
	// late arrival with an earlier timestamp slots into place
	tl.AppendIncoming(msg("m2", "second", base.Add(1*time.Second)))
	// equal timestamp lands after the existing entry
	tl.AppendIncoming(msg("m2b", "second-b", base.Add(1*time.Second)))

	got := tl.Messages()
	want := []string{"m1", "m2", "m2b", "m3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestPopulateSortsAndMarksSeen(t *testing.T) {
	tl := NewTimeline()
	base := time.Now()
	tl.Populate([]models.Message{
		msg("m2", "later", base.Add(time.Second)),
		msg("m1", "earlier", base),
	})
	got := tl.Messages()
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("populate should sort ascending, got %s,%s", got[0].ID, got[1].ID)
	}
	if tl.AppendIncoming(msg("m1", "earlier", base)) {
		t.Fatalf("populated ids should already count as seen")
	}
}

func TestResetClearsSeen(t *testing.T) {
	tl := NewTimeline()
	tl.AppendIncoming(msg("m1", "hi", time.Now()))
	tl.Reset()
	if len(tl.Messages()) != 0 {
		t.Fatalf("reset should empty the timeline")
	}
	// after a switch the same id may be legitimately loaded again
	if !tl.AppendIncoming(msg("m1", "hi", time.Now())) {
		t.Fatalf("seen set should be cleared on reset")
	}
}

func TestApplyStatusForwardOnly(t *testing.T) {
	tl := NewTimeline()
	tl.AppendIncoming(msg("m1", "hi", time.Now()))

	if !tl.ApplyStatus("m1", models.StateRead) {
		t.Fatalf("sent -> read should advance")
	}
	// a late delivered update must not walk the state back
	if tl.ApplyStatus("m1", models.StateDelivered) {
		t.Fatalf("read -> delivered is a regression and must be ignored")
	}
	if got := tl.Messages()[0].Status; got != models.StateRead {
		t.Fatalf("expected read, got %s", got)
	}
	if tl.ApplyStatus("m1", models.DeliveryState("bogus")) {
		t.Fatalf("unknown states must be ignored")
	}
	if tl.ApplyStatus("missing", models.StateRead) {
		t.Fatalf("unknown ids must be ignored")
	}
}

func TestApplyReadReceiptBatch(t *testing.T) {
	tl := NewTimeline()
	now := time.Now()
	tl.AppendIncoming(msg("m1", "a", now))
	tl.AppendIncoming(msg("m2", "b", now.Add(time.Second)))
	tl.ApplyStatus("m2", models.StateRead)

	n := tl.ApplyReadReceipt([]string{"m1", "m2", "missing"})
	if n != 1 {
		t.Fatalf("expected 1 advanced (m2 already read), got %d", n)
	}
	for _, m := range tl.Messages() {
		if m.Status != models.StateRead {
			t.Fatalf("message %s not read", m.ID)
		}
	}
}
