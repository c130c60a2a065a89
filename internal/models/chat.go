package models

import (
	"time"
)

// ChatRoom is created alongside an AcceptedJob.
type ChatRoom struct {
	ID            string    `json:"id"`
	AcceptedJobID string    `json:"acceptedJobId,omitempty"`
	JobTitle      string    `json:"jobTitle,omitempty"`
	Participants  []UserRef `json:"participants,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// ChatMessage is one entry of a room's append-only stream. The bson tags are
// used by the local transcript archive.
type ChatMessage struct {
	ID        string    `bson:"message_id" json:"id"`
	RoomID    string    `bson:"room_id" json:"chatRoomId"`
	SenderID  string    `bson:"sender_id" json:"senderId"`
	Text      string    `bson:"text" json:"text"`
	Type      string    `bson:"type" json:"type"` // "text" or "system"
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatPage is one page of room history, oldest first.
type ChatPage struct {
	Messages []ChatMessage `json:"messages"`
	HasMore  bool          `json:"hasMore"`
}

// Chat stream event types.
const (
	ChatEventMessage = "message"
	ChatEventPing    = "ping"
	ChatEventPong    = "pong"
	ChatEventError   = "error"
)

// ChatEvent is one frame of the live chat socket. Clients send "message"
// frames with Text; the server pushes "message" frames with Message.
type ChatEvent struct {
	Type    string       `json:"type"`
	RoomID  string       `json:"room_id,omitempty"`
	Text    string       `json:"text,omitempty"`
	Message *ChatMessage `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}
