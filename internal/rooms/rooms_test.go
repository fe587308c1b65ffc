package rooms

import (
	"testing"
	"time"

	"github.com/aurachat/aurasync/internal/domain"
)

func room(id int64, name string, last *time.Time) domain.Room {
	return domain.Room{ID: id, Kind: domain.RoomGroup, Name: name, LastMessageTime: last}
}

func ts(t time.Time) *time.Time { return &t }

func TestReplaceAllToleratesEmpty(t *testing.T) {
	l := New()
	l.ReplaceAll(nil)
	if len(l.Rooms()) != 0 {
		t.Fatal("expected empty room list")
	}
}

func TestSortInvariant(t *testing.T) {
	l := New()
	base := time.Now()
	l.ReplaceAll([]domain.Room{
		room(1, "old", ts(base.Add(-time.Hour))),
		room(2, "silent", nil),
		room(3, "fresh", ts(base)),
	})

	got := l.Rooms()
	if got[0].ID != 3 || got[1].ID != 1 || got[2].ID != 2 {
		t.Fatalf("bad order: %d, %d, %d", got[0].ID, got[1].ID, got[2].ID)
	}

	// An event bumping the old room must re-sort it to the front.
	l.UpsertFromEvent(1, "newest", base.Add(time.Minute))
	got = l.Rooms()
	if got[0].ID != 1 {
		t.Fatalf("room not resorted after event, first is %d", got[0].ID)
	}
	if got[0].LastMessage != "newest" {
		t.Errorf("preview not updated: %q", got[0].LastMessage)
	}
	if got[len(got)-1].ID != 2 {
		t.Error("room without messages not last")
	}
}

func TestUpsertUnknownRoomDropped(t *testing.T) {
	l := New()
	l.ReplaceAll([]domain.Room{room(1, "a", nil)})

	l.UpsertFromEvent(99, "ghost", time.Now())

	if len(l.Rooms()) != 1 {
		t.Fatal("event for unknown room created a room")
	}
}

func TestUnreadInvariant(t *testing.T) {
	l := New()
	l.ReplaceAll([]domain.Room{room(1, "a", nil), room(2, "b", nil)})
	l.Select(1)

	l.BumpUnread(1) // selected: no effect
	l.BumpUnread(2)
	l.BumpUnread(2)

	r1, _ := l.Get(1)
	r2, _ := l.Get(2)
	if r1.Unread != 0 {
		t.Errorf("selected room unread = %d, want 0", r1.Unread)
	}
	if r2.Unread != 2 {
		t.Errorf("unselected room unread = %d, want 2", r2.Unread)
	}
}

func TestSelectResetsUnread(t *testing.T) {
	l := New()
	l.ReplaceAll([]domain.Room{room(1, "a", nil), room(2, "b", nil)})
	l.Select(1)
	l.BumpUnread(2)

	l.Select(2)

	r2, _ := l.Get(2)
	if r2.Unread != 0 {
		t.Errorf("unread not reset on select: %d", r2.Unread)
	}
	if l.Selected() != 2 {
		t.Errorf("selected = %d, want 2", l.Selected())
	}
}

func TestReplaceAllKeepsUnreadCounters(t *testing.T) {
	l := New()
	l.ReplaceAll([]domain.Room{room(1, "a", nil)})
	l.BumpUnread(1)

	l.ReplaceAll([]domain.Room{room(1, "a-renamed", nil), room(2, "b", nil)})

	r1, _ := l.Get(1)
	if r1.Unread != 1 {
		t.Errorf("unread lost across refresh: %d", r1.Unread)
	}
	if r1.Name != "a-renamed" {
		t.Errorf("refresh did not replace fields: %q", r1.Name)
	}
}

func TestAddDeduplicatesByID(t *testing.T) {
	l := New()
	l.Add(room(1, "a", nil))
	l.Add(room(1, "a-again", nil))

	if len(l.Rooms()) != 1 {
		t.Fatalf("duplicate room added: %d rooms", len(l.Rooms()))
	}
	r, _ := l.Get(1)
	if r.Name != "a" {
		t.Errorf("existing room overwritten: %q", r.Name)
	}
}
