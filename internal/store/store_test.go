package store

import (
	"testing"
	"time"

	"github.com/aurachat/aurasync/internal/domain"
)

func textMsg(id, tempID int64, content string, at time.Time) domain.Message {
	c := content
	return domain.Message{
		ID:        id,
		TempID:    tempID,
		Sender:    domain.Sender{ID: 1, Username: "alice"},
		Content:   &c,
		Kind:      domain.KindText,
		CreatedAt: at,
	}
}

func TestReconcileReplacesPendingOnce(t *testing.T) {
	s := New()
	now := time.Now()

	s.AppendLocal(textMsg(0, 1000, "hello", now))
	if s.Len() != 1 {
		t.Fatalf("expected 1 record after append, got %d", s.Len())
	}

	server := textMsg(42, 0, "hello", now)
	s.Reconcile(server, 1000)
	s.Reconcile(server, 1000) // duplicate echo

	if s.Len() != 1 {
		t.Fatalf("expected exactly 1 record after double reconcile, got %d", s.Len())
	}
	got, ok := s.Get(42)
	if !ok {
		t.Fatal("server id not found after reconcile")
	}
	if got.TempID != 0 || got.Text() != "hello" {
		t.Errorf("unexpected reconciled record: %+v", got)
	}
}

func TestReconcileLateEchoNoDuplicate(t *testing.T) {
	s := New()
	now := time.Now()

	s.AppendLocal(textMsg(0, 1000, "hi", now))
	server := textMsg(7, 0, "hi", now)
	s.Reconcile(server, 1000)

	// An independent inbound echo without a temp id match.
	s.Reconcile(server, 0)

	if s.Len() != 1 {
		t.Fatalf("late echo created a duplicate: %d records", s.Len())
	}
}

func TestReconcileAppendsUnknownMessages(t *testing.T) {
	s := New()
	base := time.Now()

	s.Reconcile(textMsg(2, 0, "second", base.Add(time.Second)), 0)
	s.Reconcile(textMsg(1, 0, "first", base), 0)

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(msgs))
	}
	if msgs[0].ID != 1 || msgs[1].ID != 2 {
		t.Errorf("messages not sorted by creation time: %d, %d", msgs[0].ID, msgs[1].ID)
	}
}

func TestPatchUnknownIsNoop(t *testing.T) {
	s := New()
	read := true
	s.Patch(999, PatchFields{Read: &read}) // must not panic
	if s.Len() != 0 {
		t.Fatalf("patch created a record: %d", s.Len())
	}
}

func TestMarkDeletedPreservesShape(t *testing.T) {
	s := New()
	now := time.Now()
	msg := textMsg(5, 0, "bye", now)
	msg.Reactions = []domain.Reaction{{Username: "bob", Emoji: "x"}}
	s.Reconcile(msg, 0)

	s.MarkDeleted(5)

	got, ok := s.Get(5)
	if !ok {
		t.Fatal("deleted message removed from store")
	}
	if !got.Deleted {
		t.Error("deleted flag not set")
	}
	if got.Content != nil {
		t.Errorf("content not cleared: %q", *got.Content)
	}
	if len(got.Reactions) != 1 {
		t.Error("reactions lost on soft delete")
	}
	if !got.CreatedAt.Equal(now) {
		t.Error("timestamp changed on soft delete")
	}
	if got.Sender.Username != "alice" {
		t.Error("sender changed on soft delete")
	}
}

func TestReceiptFlagsAreMonotone(t *testing.T) {
	s := New()
	s.Reconcile(textMsg(3, 0, "x", time.Now()), 0)

	s.MarkRead(3)
	s.MarkDelivered(3)

	f := false
	s.Patch(3, PatchFields{Read: &f, Delivered: &f})

	got, _ := s.Get(3)
	if !got.Read || !got.Delivered {
		t.Errorf("receipt flags regressed: read=%v delivered=%v", got.Read, got.Delivered)
	}
}

func TestReplaceLoadsHistorySorted(t *testing.T) {
	s := New()
	base := time.Now()
	s.AppendLocal(textMsg(0, 1, "pending", base))

	s.Replace([]domain.Message{
		textMsg(11, 0, "b", base.Add(time.Second)),
		textMsg(10, 0, "a", base),
	})

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected history to replace pending state, got %d records", len(msgs))
	}
	if msgs[0].ID != 10 || msgs[1].ID != 11 {
		t.Errorf("history not sorted: %d, %d", msgs[0].ID, msgs[1].ID)
	}
}

func TestPatchMergesFields(t *testing.T) {
	s := New()
	s.Reconcile(textMsg(8, 0, "original", time.Now()), 0)

	content := "changed"
	edited := true
	s.Patch(8, PatchFields{Content: &content, Edited: &edited})

	got, _ := s.Get(8)
	if got.Text() != "changed" || !got.Edited {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Deleted {
		t.Error("untouched field changed")
	}
}
