package model

import "time"

// Conversation represents one direct conversation as seen by this client.
type Conversation struct {
	ID          string       `json:"id"`
	Participant Participant  `json:"participant"`
	LastMessage *LastMessage `json:"lastMessage"`
	UnreadCount int          `json:"unreadCount"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Participant is the identity summary of the other side of a conversation.
type Participant struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

// LastMessage stores the most recent message preview
type LastMessage struct {
	MessageID string    `json:"messageId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

// ConversationPage is one cursor page of the conversation list.
type ConversationPage struct {
	Conversations []Conversation `json:"conversations"`
	HasMore       bool           `json:"hasMore"`
	NextCursor    string         `json:"nextCursor"`
}
