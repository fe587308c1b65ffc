package domain

import "time"

// Room kinds.
const (
	RoomPrivate = "private"
	RoomGroup   = "group"
)

// Room is a chat room summary as shown in the room list.
type Room struct {
	ID              int64      `json:"id"`
	Kind            string     `json:"room_type"`
	Name            string     `json:"name,omitempty"`
	Avatar          string     `json:"avatar,omitempty"`
	Peer            *Sender    `json:"peer,omitempty"` // private rooms only
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	Unread          int        `json:"-"`
}
