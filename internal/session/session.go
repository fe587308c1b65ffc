// Package session ties the synchronization core together for one
// authenticated user: the global notification socket, the active room
// socket, the message store, the room list, presence, translations, and
// the optional local archive. Inbound envelopes are dispatched by type to
// the component that owns the affected state.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurachat/aurasync/internal/api"
	"github.com/aurachat/aurasync/internal/archive"
	"github.com/aurachat/aurasync/internal/auth"
	"github.com/aurachat/aurasync/internal/config"
	"github.com/aurachat/aurasync/internal/conn"
	"github.com/aurachat/aurasync/internal/domain"
	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/notify"
	"github.com/aurachat/aurasync/internal/presence"
	"github.com/aurachat/aurasync/internal/rooms"
	"github.com/aurachat/aurasync/internal/store"
	"github.com/aurachat/aurasync/internal/translate"
)

// Session is the live client state for one user.
type Session struct {
	cfg      *config.Config
	token    string
	Identity *auth.Identity

	API       *api.Client
	Rooms     *rooms.List
	Store     *store.Store
	Presence  *presence.Tracker
	Translate *translate.Cache
	Notifier  *notify.Notifier
	Archive   *archive.Store // nil when disabled

	mu     sync.Mutex
	global *conn.Conn
	room   *conn.Conn
	roomID int64

	tempSeq atomic.Int64
	assist  assistInbox
}

// New builds a session from configuration and an access token issued
// elsewhere.
func New(cfg *config.Config, token string, notifier *notify.Notifier) (*Session, error) {
	identity, err := auth.Inspect(token)
	if err != nil {
		return nil, fmt.Errorf("inspect token: %w", err)
	}

	s := &Session{
		cfg:      cfg,
		token:    token,
		Identity: identity,
		API:      api.NewClient(cfg.Server.BaseURL, token, cfg.Server.HTTPTimeout),
		Rooms:    rooms.New(),
		Store:    store.New(),
		Presence: presence.New(cfg.Typing.IndicatorTTL),
		Notifier: notifier,
	}
	s.Translate = translate.New(s.API, cfg.Translate.CacheCapacity)
	s.tempSeq.Store(time.Now().UnixMilli())

	if cfg.Archive.Enabled {
		arc, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		s.Archive = arc
	}
	return s, nil
}

// Start connects the global notification socket and loads the room list.
func (s *Session) Start(ctx context.Context) error {
	global, err := conn.Dial(ctx, s.cfg.Server.WSBaseURL+"/global/", s.token, s.cfg.WebSocket)
	if err != nil {
		return fmt.Errorf("dial global socket: %w", err)
	}
	global.Subscribe(s.handleGlobalFrame)

	s.mu.Lock()
	s.global = global
	s.mu.Unlock()

	if err := s.RefreshRooms(ctx); err != nil {
		s.Notifier.Error("rooms", "room list fetch failed", err)
		return err
	}
	return nil
}

// Stop tears down all connections and resources.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.room != nil {
		s.room.Close()
		s.room = nil
	}
	if s.global != nil {
		s.global.Close()
		s.global = nil
	}
	s.mu.Unlock()

	s.Presence.Stop()
	if s.Archive != nil {
		s.Archive.Close()
	}
}

// RefreshRooms reloads the room list over REST. Push notifications and
// this refresh race; both sides upsert idempotently.
func (s *Session) RefreshRooms(ctx context.Context) error {
	rs, err := s.API.Rooms(ctx)
	if err != nil {
		return err
	}
	s.Rooms.ReplaceAll(rs)
	return nil
}

// OpenRoom selects a room: fetches its history, resets its unread
// counter, and connects the room socket. Any previously open room socket
// is closed first.
func (s *Session) OpenRoom(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	if s.room != nil {
		s.room.Close()
		s.room = nil
	}
	prev := s.roomID
	s.roomID = roomID
	s.mu.Unlock()

	if prev != 0 {
		s.Presence.ClearRoom(prev)
	}
	s.Rooms.Select(roomID)
	s.Translate.SetCurrentRoom(roomID)

	msgs, err := s.API.Messages(ctx, roomID, 1)
	if err != nil {
		s.Notifier.Error("messages", "history fetch failed", err)
		return err
	}
	s.Store.Replace(msgs)
	if s.Archive != nil {
		if err := s.Archive.PutAll(msgs); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("archive write failed")
		}
	}

	endpoint := fmt.Sprintf("%s/chat/%d/", s.cfg.Server.WSBaseURL, roomID)
	room, err := conn.Dial(ctx, endpoint, s.token, s.cfg.WebSocket)
	if err != nil {
		s.Notifier.Error("conn", "room socket dial failed", err)
		return err
	}
	room.Subscribe(s.handleRoomFrame)

	s.mu.Lock()
	// OpenRoom raced with itself; keep the newest connection only.
	if s.roomID != roomID {
		s.mu.Unlock()
		room.Close()
		return nil
	}
	s.room = room
	s.mu.Unlock()
	return nil
}

// CloseRoom leaves the active room.
func (s *Session) CloseRoom() {
	s.mu.Lock()
	if s.room != nil {
		s.room.Close()
		s.room = nil
	}
	prev := s.roomID
	s.roomID = 0
	s.mu.Unlock()

	if prev != 0 {
		s.Presence.ClearRoom(prev)
	}
	s.Rooms.Select(0)
	s.Store.Replace(nil)
	s.Translate.SetCurrentRoom(0)
}

// Ready reports whether the active room socket accepts sends.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil && s.room.Ready()
}

// SendMessage appends the message locally under a fresh temp id and, when
// the room socket is ready, transmits it. A message sent while the socket
// is down stays pending until the user resends; there is no replay queue.
func (s *Session) SendMessage(content string, opts api.SendOptions) int64 {
	tempID := s.tempSeq.Add(1)

	s.mu.Lock()
	roomID := s.roomID
	room := s.room
	s.mu.Unlock()

	env := chatEnvelope(content, tempID, opts)
	local := domain.Message{
		TempID:    tempID,
		RoomID:    roomID,
		Sender:    domain.Sender{ID: s.Identity.UserID, Username: s.Identity.Username},
		Content:   &content,
		Kind:      env.Kind,
		CreatedAt: time.Now(),
		ReplyToID: opts.ReplyToID,
		Duration:  opts.Duration,
		StickerID: opts.StickerID,
		GifURL:    opts.GifURL,
	}
	s.Store.AppendLocal(local)

	if room == nil || !room.Ready() {
		s.Notifier.Warn("conn", "socket not connected; message pending until resent", nil)
		return tempID
	}

	room.Send(env)
	return tempID
}

// chatEnvelope builds the outbound chat_message frame. The backend keys
// its message analysis on target_lang, so the field is always sent.
func chatEnvelope(content string, tempID int64, opts api.SendOptions) *domain.ChatMessageSend {
	kind := opts.Kind
	if kind == "" {
		kind = domain.KindText
	}
	lang := opts.TargetLang
	if lang == "" {
		lang = "en"
	}
	return &domain.ChatMessageSend{
		Type:       domain.MsgTypeChatMessage,
		Message:    content,
		TempID:     tempID,
		TargetLang: lang,
		ReplyToID:  opts.ReplyToID,
		Kind:       kind,
		Duration:   opts.Duration,
		StickerID:  opts.StickerID,
		GifURL:     opts.GifURL,
	}
}

// SendTyping emits a typing indicator toggle.
func (s *Session) SendTyping(isTyping bool) {
	s.roomSend(&domain.TypingSend{Type: domain.MsgTypeTyping, IsTyping: isTyping})
}

// MarkRead reports a message as read.
func (s *Session) MarkRead(messageID int64) {
	s.roomSend(&domain.ReadReceiptSend{Type: domain.MsgTypeReadReceipt, MessageID: messageID})
}

// Edit rewrites a message optimistically, persists over REST, and
// broadcasts over the socket.
func (s *Session) Edit(ctx context.Context, messageID int64, newContent string) error {
	edited := true
	s.Store.Patch(messageID, store.PatchFields{Content: &newContent, Edited: &edited})

	if err := s.API.Edit(ctx, messageID, newContent); err != nil {
		s.Notifier.Error("messages", "edit failed", err)
		return err
	}
	s.roomSend(&domain.EditMessageSend{
		Type:       domain.MsgTypeEditMessage,
		MessageID:  messageID,
		NewContent: newContent,
	})
	return nil
}

// Delete soft-deletes a message optimistically, persists over REST, and
// broadcasts over the socket.
func (s *Session) Delete(ctx context.Context, messageID int64) error {
	s.Store.MarkDeleted(messageID)

	if err := s.API.Delete(ctx, messageID); err != nil {
		s.Notifier.Error("messages", "delete failed", err)
		return err
	}
	s.roomSend(&domain.DeleteMessageSend{Type: domain.MsgTypeDeleteMessage, MessageID: messageID})
	return nil
}

// React toggles an emoji reaction. The authoritative reaction list comes
// back as a reaction_update event.
func (s *Session) React(messageID int64, emoji string) {
	if !s.Ready() {
		s.Notifier.Warn("conn", "socket not connected; reaction not sent", nil)
		return
	}
	s.roomSend(&domain.AddReactionSend{
		Type:      domain.MsgTypeAddReaction,
		MessageID: messageID,
		Emoji:     emoji,
	})
}

// Forward copies a message into another room over REST.
func (s *Session) Forward(ctx context.Context, messageID, targetRoomID int64) error {
	if _, err := s.API.Forward(ctx, messageID, targetRoomID); err != nil {
		s.Notifier.Error("messages", "forward failed", err)
		return err
	}
	return nil
}

// Search finds messages matching query across the user's rooms.
func (s *Session) Search(ctx context.Context, query string) ([]domain.Message, error) {
	msgs, err := s.API.Search(ctx, query)
	if err != nil {
		s.Notifier.Error("messages", "search failed", err)
		return nil, err
	}
	return msgs, nil
}

// RequestSummary asks the backend for an AI chat summary; the result
// arrives as a chat_summary envelope.
func (s *Session) RequestSummary() {
	s.roomSend(&domain.RequestSummarySend{Type: domain.MsgTypeRequestSummary})
}

// RequestSuggestion asks for an inline continuation of partial input; the
// result arrives as a ghost_suggestion envelope.
func (s *Session) RequestSuggestion(partial, targetLang string) {
	s.roomSend(&domain.TypingSuggestionSend{
		Type:       domain.MsgTypeTypingSuggestion,
		Partial:    partial,
		TargetLang: targetLang,
	})
}

// TranslateRoom fetches (or returns cached) translations for every
// confirmed message in the active room.
func (s *Session) TranslateRoom(ctx context.Context, lang string) error {
	if lang == "" || lang == "en" {
		return nil
	}

	s.mu.Lock()
	roomID := s.roomID
	s.mu.Unlock()
	if roomID == 0 {
		return nil
	}

	var ids []int64
	for _, m := range s.Store.Messages() {
		if m.ID != 0 && !m.Deleted {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.Translate.GetOrFetch(ctx, roomID, lang, ids); err != nil {
		if err != translate.ErrStale {
			s.Notifier.Warn("translate", "batch translation failed", err)
		}
		return err
	}
	return nil
}

// DisplayContent returns the text to render for a message in the target
// language, falling back to the original content.
func (s *Session) DisplayContent(msg *domain.Message, lang string) string {
	if lang == "" || lang == "en" || msg.ID == 0 {
		return msg.Text()
	}
	s.mu.Lock()
	roomID := s.roomID
	s.mu.Unlock()

	if text, ok := s.Translate.Lookup(roomID, lang, msg.ID); ok {
		return text
	}
	return msg.Text()
}

func (s *Session) roomSend(v interface{}) {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	if room == nil {
		return
	}
	room.Send(v)
}

func (s *Session) activeRoomID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}
