package domain

import "time"

// Message kinds.
const (
	KindText    = "text"
	KindImage   = "image"
	KindFile    = "file"
	KindVoice   = "voice"
	KindSticker = "sticker"
	KindGif     = "gif"
)

// Sender identifies the author of a message.
type Sender struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Reaction is a single user's emoji reaction on a message.
type Reaction struct {
	Username string `json:"username"`
	Emoji    string `json:"emoji"`
}

// Message is one chat message as held by the client. A locally created
// message carries TempID as its only identity until the server echo
// assigns ID; the record is then replaced, never duplicated.
type Message struct {
	ID        int64      `json:"id"`
	TempID    int64      `json:"temp_id,omitempty"`
	RoomID    int64      `json:"room_id"`
	Sender    Sender     `json:"sender"`
	Content   *string    `json:"content"`
	Kind      string     `json:"message_type"`
	CreatedAt time.Time  `json:"created_at"`
	Edited    bool       `json:"edited"`
	Deleted   bool       `json:"is_deleted"`
	Pinned    bool       `json:"is_pinned"`
	Delivered bool       `json:"is_delivered"`
	Read      bool       `json:"is_read"`
	Forwarded bool       `json:"forwarded"`
	ReplyToID int64      `json:"reply_to_id,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`

	// Kind-specific extras.
	Duration  int    `json:"duration,omitempty"` // voice, seconds
	StickerID int64  `json:"sticker_id,omitempty"`
	GifURL    string `json:"gif_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
}

// Pending reports whether the message is still awaiting its server echo.
func (m *Message) Pending() bool {
	return m.ID == 0 && m.TempID != 0
}

// Text returns the content or "" for deleted / empty messages.
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
