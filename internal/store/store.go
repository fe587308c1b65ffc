// Package store holds the active room's message sequence. It is the single
// source of truth for what the user sees: optimistic local sends, their
// server-confirmed replacements, and in-place patches from room events.
package store

import (
	"sort"
	"sync"

	"github.com/aurachat/aurasync/internal/domain"
	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/metrics"
)

// PatchFields are the mutable message fields an event may carry. Nil
// pointers leave the field untouched.
type PatchFields struct {
	Content   *string
	Edited    *bool
	Deleted   *bool
	Read      *bool
	Delivered *bool
	Reactions []domain.Reaction
}

// Store is an ordered collection of messages for one room. Records are
// indexed by both temp id and server id so reconciliation is O(1); they
// are mutated in place and never removed (deletion is a flag).
type Store struct {
	mu       sync.RWMutex
	messages []*domain.Message
	byTemp   map[int64]*domain.Message
	byID     map[int64]*domain.Message
}

func New() *Store {
	return &Store{
		byTemp: make(map[int64]*domain.Message),
		byID:   make(map[int64]*domain.Message),
	}
}

// AppendLocal inserts a pending record at the tail. The message carries
// only its temp id; delivered and read start false. Purely local, always
// succeeds.
func (s *Store) AppendLocal(msg domain.Message) {
	msg.ID = 0
	msg.Delivered = false
	msg.Read = false

	s.mu.Lock()
	defer s.mu.Unlock()

	m := &msg
	s.messages = append(s.messages, m)
	s.byTemp[m.TempID] = m
	metrics.MessagesSent.Inc()
}

// Reconcile applies a server-confirmed message. If tempID matches a
// pending record, that record is replaced in place; otherwise the message
// is appended unless its server id is already present. Either way the
// sequence is re-sorted by creation time. Delivering the same echo twice
// leaves exactly one record.
func (s *Store) Reconcile(serverMsg domain.Message, tempID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tempID != 0 {
		if pending, ok := s.byTemp[tempID]; ok {
			delete(s.byTemp, tempID)
			*pending = serverMsg
			s.byID[serverMsg.ID] = pending
			s.sortLocked()
			metrics.MessagesReconciled.Inc()
			return
		}
	}

	if _, ok := s.byID[serverMsg.ID]; ok {
		metrics.DuplicateEchoes.Inc()
		return
	}

	m := &serverMsg
	s.messages = append(s.messages, m)
	s.byID[m.ID] = m
	s.sortLocked()
}

// Patch shallow-merges fields into the record matching id. Unknown ids are
// a silent no-op: the event may reference a message outside the loaded
// window.
func (s *Store) Patch(id int64, fields PatchFields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		metrics.EventsDropped.WithLabelValues("unknown_message").Inc()
		l := log.L()
		l.Debug().Int64(log.FieldMessageID, id).Msg("patch for unknown message dropped")
		return
	}

	if fields.Content != nil {
		m.Content = fields.Content
	}
	if fields.Edited != nil {
		m.Edited = *fields.Edited
	}
	if fields.Deleted != nil {
		m.Deleted = *fields.Deleted
	}
	if fields.Reactions != nil {
		m.Reactions = fields.Reactions
	}
	// delivered/read only ever move false -> true
	if fields.Read != nil && *fields.Read {
		m.Read = true
	}
	if fields.Delivered != nil && *fields.Delivered {
		m.Delivered = true
	}
}

// MarkDeleted soft-deletes: content goes nil, the deleted flag is set,
// and everything else (reactions, timestamps, sender) stays queryable.
func (s *Store) MarkDeleted(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		metrics.EventsDropped.WithLabelValues("unknown_message").Inc()
		return
	}
	m.Deleted = true
	m.Content = nil
}

// MarkRead flips the read flag true; it never goes back.
func (s *Store) MarkRead(id int64) {
	read := true
	s.Patch(id, PatchFields{Read: &read})
}

// MarkDelivered flips the delivered flag true; it never goes back.
func (s *Store) MarkDelivered(id int64) {
	delivered := true
	s.Patch(id, PatchFields{Delivered: &delivered})
}

// Replace loads a full history fetch, discarding current state. Pending
// local records are dropped with it: a room switch re-fetches history and
// unsent messages belong to the abandoned view.
func (s *Store) Replace(msgs []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = make([]*domain.Message, 0, len(msgs))
	s.byTemp = make(map[int64]*domain.Message)
	s.byID = make(map[int64]*domain.Message, len(msgs))

	for i := range msgs {
		m := &msgs[i]
		s.messages = append(s.messages, m)
		if m.ID != 0 {
			s.byID[m.ID] = m
		} else if m.TempID != 0 {
			s.byTemp[m.TempID] = m
		}
	}
	s.sortLocked()
}

// Messages returns a snapshot of the sequence in creation order.
func (s *Store) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// Get returns a copy of the message with the given server id.
func (s *Store) Get(id int64) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return domain.Message{}, false
	}
	return *m, true
}

// Len reports the number of records, pending included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].CreatedAt.Before(s.messages[j].CreatedAt)
	})
}
