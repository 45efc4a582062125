package event

import (
	"encoding/json"
	"time"

	"Murmur/internal/model"
)

// Event Types - Server to Client
const (
	// EventConnectionSuccess - handshake acknowledged, push is live
	EventConnectionSuccess = "connection.success"

	// EventInitialOnlineStatus - presence snapshot sent right after connect
	EventInitialOnlineStatus = "initial.online.status"

	// EventMessageNew - another participant sent a message
	EventMessageNew = "message.new"

	// EventMessageSent - confirmation of a message this client sent
	EventMessageSent = "message.sent"

	// EventMessageReadUpdate - the other participant read messages
	EventMessageReadUpdate = "message.read_update"

	// EventMessageVideoUpdated - background encoding state changed for an attachment
	EventMessageVideoUpdated = "message.video.updated"

	// EventUserOnline - a user came online
	EventUserOnline = "user.online"

	// EventUserOffline - a user went offline
	EventUserOffline = "user.offline"

	// EventTypingNotification - a user started or stopped typing
	EventTypingNotification = "typing.notification"

	// EventError - server-side error notice
	EventError = "error"
)

// Event Types - Client to Server
const (
	EventMessageSend = "message.send"
	EventMessageRead = "message.read"
	EventTypingStart = "typing.start"
	EventTypingStop  = "typing.stop"
	EventPing        = "ping"
)

// Frame is the tagged wire envelope for every socket event.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// InitialOnlineStatus carries the presence snapshot after connect.
type InitialOnlineStatus struct {
	Users []model.Presence `json:"users"`
}

// NewMessage wraps an inbound message push.
type NewMessage struct {
	Message model.Message `json:"message"`
}

// MessageSent confirms a locally-originated message. TempID, when present,
// names the placeholder this confirmation settles.
type MessageSent struct {
	Message model.Message `json:"message"`
	TempID  string        `json:"tempId,omitempty"`
}

// ReadUpdate notifies that the other participant read messages.
type ReadUpdate struct {
	ConversationID string    `json:"conversationId"`
	ReadBy         string    `json:"readBy"`
	ReadAt         time.Time `json:"readAt"`
}

// VideoUpdated carries an asynchronous attachment-state patch.
type VideoUpdated struct {
	ConversationID string      `json:"conversationId"`
	MessageID      string      `json:"messageId"`
	Media          model.Media `json:"media"`
}

// UserStatus carries a single presence change.
type UserStatus struct {
	UserID   string    `json:"userId"`
	LastSeen time.Time `json:"lastSeen"`
}

// Typing carries a typing indicator change for a conversation.
type Typing struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// ErrorNotice is a server-side error pushed over the socket.
type ErrorNotice struct {
	Message string `json:"message"`
}
