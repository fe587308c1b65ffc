// Package notify is the single user-facing surface for failures and
// activity. Every call site reports here instead of choosing between a
// blocking alert and a silent log line.
package notify

import (
	"sync"

	"github.com/aurachat/aurasync/internal/log"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notification is one user-visible event.
type Notification struct {
	Level   Level
	Source  string // component that reported it
	Message string
	Err     error
}

// Notifier fans notifications out to subscribers over bounded queues.
// A slow subscriber loses its oldest notifications rather than blocking
// the reporting path.
type Notifier struct {
	mu   sync.RWMutex
	subs map[int]chan Notification
	next int
	size int
}

func New(queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Notifier{
		subs: make(map[int]chan Notification),
		size: queueSize,
	}
}

// Subscribe returns a channel of notifications and an unsubscribe func.
func (n *Notifier) Subscribe() (<-chan Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan Notification, n.size)
	n.subs[id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
}

// Publish delivers a notification to all subscribers and mirrors it to
// the structured log.
func (n *Notifier) Publish(note Notification) {
	l := log.L()
	ev := l.Info()
	switch note.Level {
	case LevelWarn:
		ev = l.Warn()
	case LevelError:
		ev = l.Error()
	}
	ev.Str("source", note.Source).Err(note.Err).Msg(note.Message)

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- note:
		default:
			// full queue: drop the oldest, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- note:
			default:
			}
		}
	}
}

// Info reports an informational event.
func (n *Notifier) Info(source, msg string) {
	n.Publish(Notification{Level: LevelInfo, Source: source, Message: msg})
}

// Warn reports a recoverable problem.
func (n *Notifier) Warn(source, msg string, err error) {
	n.Publish(Notification{Level: LevelWarn, Source: source, Message: msg, Err: err})
}

// Error reports a failed operation.
func (n *Notifier) Error(source, msg string, err error) {
	n.Publish(Notification{Level: LevelError, Source: source, Message: msg, Err: err})
}
