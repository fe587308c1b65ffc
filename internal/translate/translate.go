// Package translate caches batch message translations per (room, target
// language). A fetch for a room supersedes any in-flight fetch for that
// room, and results landing after the user moved to another room are
// discarded against a live current-room reference.
package translate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/metrics"
)

// BatchTranslator is the external service that translates many messages
// in one call.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, messageIDs []int64, targetLang string) (map[int64]string, error)
}

// ErrStale marks a result discarded because the room changed or a newer
// fetch superseded the call.
var ErrStale = errors.New("translate: stale result discarded")

type entryKey struct {
	roomID int64
	lang   string
}

// fetchHandle identifies one in-flight batch call so a finished fetch can
// tell whether a newer call for the same room replaced it.
type fetchHandle struct {
	cancel context.CancelFunc
}

// Cache is the bounded translation cache.
type Cache struct {
	mu      sync.Mutex
	entries map[entryKey]map[int64]string
	order   []entryKey // LRU, oldest first
	cap     int

	inflight map[int64]*fetchHandle

	currentRoom atomic.Int64
	tr          BatchTranslator
}

// New creates a cache holding at most capacity (room, language) entries.
func New(tr BatchTranslator, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 64
	}
	return &Cache{
		entries:  make(map[entryKey]map[int64]string),
		inflight: make(map[int64]*fetchHandle),
		cap:      capacity,
		tr:       tr,
	}
}

// SetCurrentRoom updates the live room reference consulted when a batch
// result arrives.
func (c *Cache) SetCurrentRoom(roomID int64) {
	c.currentRoom.Store(roomID)
}

// GetOrFetch returns the cached translations for (roomID, lang) when the
// entry holds the same number of ids as the request, otherwise it issues
// one batch call. A new call for the same room cancels any call still in flight for
// it; a result arriving after the current room changed is discarded with
// ErrStale.
func (c *Cache) GetOrFetch(ctx context.Context, roomID int64, lang string, messageIDs []int64) (map[int64]string, error) {
	key := entryKey{roomID, lang}

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok && len(cached) == len(messageIDs) {
		c.touchLocked(key)
		c.mu.Unlock()
		metrics.TranslationCacheHits.Inc()
		return copyTexts(cached), nil
	}

	// Supersede any fetch still running for this room.
	if prev, ok := c.inflight[roomID]; ok {
		prev.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	handle := &fetchHandle{cancel: cancel}
	c.inflight[roomID] = handle
	c.mu.Unlock()

	metrics.TranslationBatches.Inc()
	texts, err := c.tr.TranslateBatch(fetchCtx, messageIDs, lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	superseded := c.inflight[roomID] != handle
	if !superseded {
		delete(c.inflight, roomID)
	}
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrStale
		}
		return nil, err
	}
	if superseded {
		return nil, ErrStale
	}
	if c.currentRoom.Load() != roomID {
		l := log.L()
		l.Debug().Int64(log.FieldRoomID, roomID).Msg("translation result for inactive room discarded")
		return nil, ErrStale
	}

	c.storeLocked(key, texts)
	return copyTexts(texts), nil
}

// Lookup returns the cached translation for one message. It never blocks
// and never errors; a miss means the caller falls back to the original
// content.
func (c *Cache) Lookup(roomID int64, lang string, messageID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	texts, ok := c.entries[entryKey{roomID, lang}]
	if !ok {
		return "", false
	}
	text, ok := texts[messageID]
	return text, ok
}

// Len reports the number of (room, language) entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) storeLocked(key entryKey, texts map[int64]string) {
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = copyTexts(texts)
	c.touchLocked(key)
}

func (c *Cache) touchLocked(key entryKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

func copyTexts(in map[int64]string) map[int64]string {
	out := make(map[int64]string, len(in))
	for id, text := range in {
		out[id] = text
	}
	return out
}
