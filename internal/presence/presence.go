// Package presence tracks who is online globally and who is typing per
// room. Typing clears are cooperative on the wire (the sender promises an
// is_typing=false after going quiet), so every entry also carries a
// receiver-side idle timer that self-clears it if that promise is broken.
package presence

import (
	"sync"
	"time"

	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/metrics"
)

type typingKey struct {
	roomID   int64
	username string
}

// Tracker holds the online set and per-room typing sets.
type Tracker struct {
	mu     sync.RWMutex
	online map[int64]struct{}
	typing map[int64]map[string]struct{}
	timers map[typingKey]*time.Timer
	// gens lets a fired timer recognize that the entry was re-armed
	// while it waited on the mutex. Monotonic per key, never reset.
	gens map[typingKey]uint64
	ttl  time.Duration
}

// New creates a tracker. ttl is the receiver-side typing self-clear; a
// non-positive ttl disables the timers and leaves clearing fully
// sender-driven.
func New(ttl time.Duration) *Tracker {
	return &Tracker{
		online: make(map[int64]struct{}),
		typing: make(map[int64]map[string]struct{}),
		timers: make(map[typingKey]*time.Timer),
		gens:   make(map[typingKey]uint64),
		ttl:    ttl,
	}
}

// SetOnline adds a user to the online set. Idempotent.
func (t *Tracker) SetOnline(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online[userID] = struct{}{}
}

// SetOffline removes a user from the online set. Idempotent.
func (t *Tracker) SetOffline(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.online, userID)
}

// Online reports whether userID is currently online.
func (t *Tracker) Online(userID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// OnlineUsers returns the current online set.
func (t *Tracker) OnlineUsers() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]int64, 0, len(t.online))
	for id := range t.online {
		out = append(out, id)
	}
	return out
}

// SetTyping records a typing indicator. true (re)arms the idle timer for
// the entry; false clears entry and timer.
func (t *Tracker) SetTyping(roomID int64, username string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{roomID, username}
	if isTyping {
		set, ok := t.typing[roomID]
		if !ok {
			set = make(map[string]struct{})
			t.typing[roomID] = set
		}
		set[username] = struct{}{}
		t.armLocked(key)
		return
	}
	t.clearLocked(key)
}

// Typing returns the usernames currently typing in a room.
func (t *Tracker) Typing(roomID int64) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := t.typing[roomID]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// ClearRoom drops all typing state for a room (room switch).
func (t *Tracker) ClearRoom(roomID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for name := range t.typing[roomID] {
		t.clearLocked(typingKey{roomID, name})
	}
}

// Stop releases all pending timers.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *Tracker) armLocked(key typingKey) {
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	if t.ttl <= 0 {
		return
	}
	t.gens[key]++
	gen := t.gens[key]
	t.timers[key] = time.AfterFunc(t.ttl, func() {
		t.expire(key, gen)
	})
}

func (t *Tracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gens[key] != gen {
		return // re-armed while this fire waited on the lock
	}
	if _, ok := t.timers[key]; !ok {
		return // cleared in the meantime
	}
	t.clearLocked(key)
	metrics.TypingExpirations.Inc()
	l := log.L()
	l.Debug().Int64(log.FieldRoomID, key.roomID).Str("user", key.username).Msg("typing indicator expired")
}

func (t *Tracker) clearLocked(key typingKey) {
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	if set, ok := t.typing[key.roomID]; ok {
		delete(set, key.username)
		if len(set) == 0 {
			delete(t.typing, key.roomID)
		}
	}
}
