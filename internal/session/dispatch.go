package session

import (
	"encoding/json"

	"github.com/aurachat/aurasync/internal/domain"
	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/metrics"
	"github.com/aurachat/aurasync/internal/store"
)

// handleGlobalFrame consumes the global notification socket: presence,
// delivered receipts, room-list notifications, and AI payloads.
func (s *Session) handleGlobalFrame(frame []byte) {
	var base domain.BaseEnvelope
	if err := json.Unmarshal(frame, &base); err != nil {
		metrics.EventsDropped.WithLabelValues("bad_frame").Inc()
		l := log.L()
		l.Warn().Err(err).Msg("undecodable global frame dropped")
		return
	}

	switch base.Type {
	case domain.MsgTypePresenceUpdate:
		var ev domain.PresenceUpdateEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		if ev.IsOnline {
			s.Presence.SetOnline(ev.UserID)
		} else {
			s.Presence.SetOffline(ev.UserID)
		}

	case domain.MsgTypeDeliveredReceipt:
		var ev domain.DeliveredReceiptEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.Store.MarkDelivered(ev.MessageID.Int64())

	case domain.MsgTypeNewMessageNotif:
		var ev domain.NewMessageNotifEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		if ev.Message.Sender.ID == s.Identity.UserID {
			return
		}
		roomID := ev.RoomID.Int64()
		s.Rooms.BumpUnread(roomID)
		s.Rooms.UpsertFromEvent(roomID, ev.Message.Text(), ev.Message.CreatedAt)

	case domain.MsgTypeMentionNotif:
		var ev domain.MentionNotifEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.Notifier.Info("mentions", "mentioned by "+ev.MentionedBy)

	case domain.MsgTypeAISuggestions:
		var ev domain.AISuggestionsEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.assist.setSuggestions(ev)

	case domain.MsgTypeAISummary:
		var ev domain.AISummaryEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.assist.setMood(ev.RoomID.Int64(), ev.Summary)

	case domain.MsgTypeChatSummary:
		var ev domain.ChatSummaryEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.assist.setSummary(ev.RoomID.Int64(), ev.Summary)
	}
}

// handleRoomFrame consumes the active room socket: message echoes,
// receipts, typing, edits, deletions, and reactions.
func (s *Session) handleRoomFrame(frame []byte) {
	var base domain.BaseEnvelope
	if err := json.Unmarshal(frame, &base); err != nil {
		metrics.EventsDropped.WithLabelValues("bad_frame").Inc()
		l := log.L()
		l.Warn().Err(err).Msg("undecodable room frame dropped")
		return
	}

	switch base.Type {
	case domain.MsgTypeChatMessage:
		var ev domain.ChatMessageEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		var tempID int64
		// Echoes of other users' sends carry their temp ids; only our
		// own reconcile against the pending record.
		if ev.TempID != nil && ev.Message.Sender.ID == s.Identity.UserID {
			tempID = *ev.TempID
		}
		s.Store.Reconcile(ev.Message, tempID)
		s.Rooms.UpsertFromEvent(s.activeRoomID(), ev.Message.Text(), ev.Message.CreatedAt)
		if s.Archive != nil {
			if err := s.Archive.Put(&ev.Message); err != nil {
				l := log.L()
				l.Warn().Err(err).Msg("archive write failed")
			}
		}

	case domain.MsgTypeReadReceipt:
		var ev domain.ReadReceiptEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.Store.MarkRead(ev.MessageID.Int64())

	case domain.MsgTypeTypingIndicator:
		var ev domain.TypingIndicatorEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		if ev.User == s.Identity.Username {
			return
		}
		roomID := ev.RoomID.Int64()
		if roomID == 0 {
			roomID = s.activeRoomID()
		}
		s.Presence.SetTyping(roomID, ev.User, ev.IsTyping)

	case domain.MsgTypeMessageEdited:
		var ev domain.MessageEditedEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		edited := true
		s.Store.Patch(ev.MessageID.Int64(), store.PatchFields{
			Content: &ev.NewContent,
			Edited:  &edited,
		})

	case domain.MsgTypeMessageDeleted:
		var ev domain.MessageDeletedEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.Store.MarkDeleted(ev.MessageID.Int64())

	case domain.MsgTypeReactionUpdate:
		var ev domain.ReactionUpdateEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		reactions := ev.Reactions
		if reactions == nil {
			reactions = []domain.Reaction{}
		}
		s.Store.Patch(ev.MessageID.Int64(), store.PatchFields{Reactions: reactions})

	case domain.MsgTypeGhostSuggestion:
		var ev domain.GhostSuggestionEvent
		if json.Unmarshal(frame, &ev) != nil {
			return
		}
		s.assist.setGhost(ev.Continuation)
	}
}
