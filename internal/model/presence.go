package model

import "time"

// Presence is a user's online status, independent of any conversation.
type Presence struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}
