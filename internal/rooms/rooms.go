// Package rooms keeps the room summary list consistent with both REST
// refreshes and push notifications. The two paths race; every mutation is
// an idempotent upsert and the list is re-sorted by recency afterwards.
package rooms

import (
	"sort"
	"sync"
	"time"

	"github.com/aurachat/aurasync/internal/domain"
	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/metrics"
)

// List is the synchronized room summary list.
type List struct {
	mu       sync.RWMutex
	rooms    []*domain.Room
	byID     map[int64]*domain.Room
	selected int64
}

func New() *List {
	return &List{
		byID: make(map[int64]*domain.Room),
	}
}

// ReplaceAll loads the full room list from a REST fetch. An empty result
// is valid (a new user with no rooms). Unread counters carry over for
// rooms that survive the refresh.
func (l *List) ReplaceAll(rs []domain.Room) {
	l.mu.Lock()
	defer l.mu.Unlock()

	unread := make(map[int64]int, len(l.byID))
	for id, r := range l.byID {
		unread[id] = r.Unread
	}

	l.rooms = make([]*domain.Room, 0, len(rs))
	l.byID = make(map[int64]*domain.Room, len(rs))
	for i := range rs {
		r := &rs[i]
		r.Unread = unread[r.ID]
		l.rooms = append(l.rooms, r)
		l.byID[r.ID] = r
	}
	l.sortLocked()
}

// Add inserts a room if its id is not already present (room creation
// flow).
func (l *List) Add(room domain.Room) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[room.ID]; ok {
		return
	}
	r := &room
	l.rooms = append(l.rooms, r)
	l.byID[r.ID] = r
	l.sortLocked()
}

// UpsertFromEvent updates a room's last-message preview from a push
// event. Events for rooms not loaded yet are dropped; the next full
// refresh or the room creation flow introduces them.
func (l *List) UpsertFromEvent(roomID int64, lastMessage string, lastMessageTime time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.byID[roomID]
	if !ok {
		metrics.EventsDropped.WithLabelValues("unknown_room").Inc()
		lg := log.L()
		lg.Debug().Int64(log.FieldRoomID, roomID).Msg("preview event for unknown room dropped")
		return
	}
	r.LastMessage = lastMessage
	t := lastMessageTime
	r.LastMessageTime = &t
	l.sortLocked()
}

// BumpUnread increments the unread counter unless the room is currently
// selected.
func (l *List) BumpUnread(roomID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if roomID == l.selected {
		return
	}
	if r, ok := l.byID[roomID]; ok {
		r.Unread++
	}
}

// Select marks a room current and zeroes its unread counter. Selecting 0
// deselects.
func (l *List) Select(roomID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.selected = roomID
	if r, ok := l.byID[roomID]; ok {
		r.Unread = 0
	}
}

// Selected returns the currently selected room id, 0 if none.
func (l *List) Selected() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selected
}

// Get returns a copy of the room with the given id.
func (l *List) Get(roomID int64) (domain.Room, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.byID[roomID]
	if !ok {
		return domain.Room{}, false
	}
	return *r, true
}

// Rooms returns a snapshot ordered by recency, rooms without messages
// last.
func (l *List) Rooms() []domain.Room {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Room, len(l.rooms))
	for i, r := range l.rooms {
		out[i] = *r
	}
	return out
}

func (l *List) sortLocked() {
	sort.SliceStable(l.rooms, func(i, j int) bool {
		ti, tj := l.rooms[i].LastMessageTime, l.rooms[j].LastMessageTime
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}
