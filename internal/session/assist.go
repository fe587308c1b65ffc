package session

import (
	"sync"

	"github.com/aurachat/aurasync/internal/domain"
)

// assistInbox collects AI payloads pushed by the backend for the
// assistive panel: per-message reply suggestions, per-room mood, chat
// summaries, and the inline ghost continuation.
type assistInbox struct {
	mu          sync.RWMutex
	ghost       string
	suggestions map[int64]domain.AISuggestionsEvent
	moods       map[int64]string
	summaries   map[int64]string
}

func (a *assistInbox) setGhost(continuation string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ghost = continuation
}

func (a *assistInbox) setSuggestions(ev domain.AISuggestionsEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.suggestions == nil {
		a.suggestions = make(map[int64]domain.AISuggestionsEvent)
	}
	a.suggestions[ev.MessageID.Int64()] = ev
}

func (a *assistInbox) setMood(roomID int64, mood string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.moods == nil {
		a.moods = make(map[int64]string)
	}
	a.moods[roomID] = mood
}

func (a *assistInbox) setSummary(roomID int64, summary string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.summaries == nil {
		a.summaries = make(map[int64]string)
	}
	a.summaries[roomID] = summary
}

// Ghost returns the latest inline continuation and clears it.
func (s *Session) Ghost() string {
	s.assist.mu.Lock()
	defer s.assist.mu.Unlock()
	g := s.assist.ghost
	s.assist.ghost = ""
	return g
}

// Suggestions returns the AI reply suggestions for a message, if any.
func (s *Session) Suggestions(messageID int64) (domain.AISuggestionsEvent, bool) {
	s.assist.mu.RLock()
	defer s.assist.mu.RUnlock()
	ev, ok := s.assist.suggestions[messageID]
	return ev, ok
}

// Mood returns the latest conversation mood for a room.
func (s *Session) Mood(roomID int64) (string, bool) {
	s.assist.mu.RLock()
	defer s.assist.mu.RUnlock()
	m, ok := s.assist.moods[roomID]
	return m, ok
}

// Summary returns the latest chat summary for a room.
func (s *Session) Summary(roomID int64) (string, bool) {
	s.assist.mu.RLock()
	defer s.assist.mu.RUnlock()
	m, ok := s.assist.summaries[roomID]
	return m, ok
}
