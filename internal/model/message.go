package model

import "time"

// Delivery status values. Only locally-originated messages carry one;
// server-originated messages leave the field empty.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// Media types used for attachments and message previews.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Message represents a chat message inside a conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Sender         Participant `json:"sender"`
	Content        string      `json:"content"`
	Media          []Media     `json:"media"`
	CreatedAt      time.Time   `json:"createdAt"`
	IsRead         bool        `json:"isRead"`
	ReadAt         *time.Time  `json:"readAt"`
	DeliveryStatus string      `json:"deliveryStatus,omitempty"`
}

// Media is one attachment of a message.
type Media struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Type           string `json:"type"`
	ThumbnailURL   string `json:"thumbnailUrl,omitempty"`
	EncodingStatus string `json:"encodingStatus,omitempty"`
}

// MessagePage is one cursor page of a conversation's history,
// newest-first as the server returns it.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"hasMore"`
	NextCursor string    `json:"nextCursor"`
}
