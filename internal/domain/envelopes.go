package domain

// WebSocket message types sent by the client.
const (
	MsgTypeChatMessage      = "chat_message"
	MsgTypeTyping           = "typing"
	MsgTypeReadReceipt      = "read_receipt"
	MsgTypeEditMessage      = "edit_message"
	MsgTypeDeleteMessage    = "delete_message"
	MsgTypeAddReaction      = "add_reaction"
	MsgTypeRequestSummary   = "request_summary"
	MsgTypeTypingSuggestion = "typing_suggestion"
)

// WebSocket message types received from the server.
const (
	MsgTypeTypingIndicator  = "typing_indicator"
	MsgTypeMessageEdited    = "message_edited"
	MsgTypeMessageDeleted   = "message_deleted"
	MsgTypeReactionUpdate   = "reaction_update"
	MsgTypePresenceUpdate   = "presence_update"
	MsgTypeDeliveredReceipt = "delivered_receipt"
	MsgTypeNewMessageNotif  = "new_message_notification"
	MsgTypeMentionNotif     = "mention_notification"
	MsgTypeGhostSuggestion  = "ghost_suggestion"
	MsgTypeAISuggestions    = "ai_suggestions"
	MsgTypeAISummary        = "ai_summary"
	MsgTypeChatSummary      = "chat_summary"
)

// BaseEnvelope is decoded first to pick the concrete envelope by type.
type BaseEnvelope struct {
	Type string `json:"type"`
}

// Client -> Server envelopes

type ChatMessageSend struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	TempID     int64  `json:"temp_id"`
	TargetLang string `json:"target_lang"`
	ReplyToID  int64  `json:"reply_to_id,omitempty"`
	Kind       string `json:"message_type,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	StickerID  int64  `json:"sticker_id,omitempty"`
	GifURL     string `json:"gif_url,omitempty"`
}

type TypingSend struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"is_typing"`
}

type ReadReceiptSend struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
}

type EditMessageSend struct {
	Type       string `json:"type"`
	MessageID  int64  `json:"message_id"`
	NewContent string `json:"new_content"`
}

type DeleteMessageSend struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
}

type AddReactionSend struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type RequestSummarySend struct {
	Type string `json:"type"`
}

type TypingSuggestionSend struct {
	Type       string `json:"type"`
	Partial    string `json:"partial"`
	TargetLang string `json:"target_lang,omitempty"`
}

// Server -> Client envelopes

type ChatMessageEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
	TempID  *int64  `json:"temp_id"`
}

type ReadReceiptEvent struct {
	Type      string `json:"type"`
	MessageID FlexID `json:"message_id"`
	Reader    string `json:"reader,omitempty"`
}

type TypingIndicatorEvent struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	RoomID   FlexID `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

type MessageEditedEvent struct {
	Type       string `json:"type"`
	MessageID  FlexID `json:"message_id"`
	NewContent string `json:"new_content"`
}

type MessageDeletedEvent struct {
	Type      string `json:"type"`
	MessageID FlexID `json:"message_id"`
}

type ReactionUpdateEvent struct {
	Type      string     `json:"type"`
	MessageID FlexID     `json:"message_id"`
	Reactions []Reaction `json:"reactions"`
}

type PresenceUpdateEvent struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

type DeliveredReceiptEvent struct {
	Type        string `json:"type"`
	MessageID   FlexID `json:"message_id"`
	DeliveredTo string `json:"delivered_to,omitempty"`
}

type NewMessageNotifEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
	RoomID  FlexID  `json:"room_id"`
}

type MentionNotifEvent struct {
	Type        string `json:"type"`
	RoomID      FlexID `json:"room_id"`
	MessageID   FlexID `json:"message_id"`
	MentionedBy string `json:"mentioned_by"`
}

type GhostSuggestionEvent struct {
	Type         string `json:"type"`
	Continuation string `json:"continuation"`
}

type AISuggestionsEvent struct {
	Type        string   `json:"type"`
	RoomID      FlexID   `json:"room_id"`
	MessageID   FlexID   `json:"message_id"`
	Replies     []string `json:"replies"`
	Suggestions []string `json:"suggestions"`
}

type AISummaryEvent struct {
	Type    string `json:"type"`
	RoomID  FlexID `json:"room_id"`
	Summary string `json:"summary"`
}

type ChatSummaryEvent struct {
	Type    string `json:"type"`
	RoomID  FlexID `json:"room_id"`
	Summary string `json:"summary"`
}
