package model

// -----------------------------------------------------------------
// Monitor Snapshot Models
// -----------------------------------------------------------------

// MonitorSnapshot is a point-in-time health view of the sync core.
type MonitorSnapshot struct {
	Status     string          `json:"status"` // "live", "connecting", "degraded", "offline"
	Connection ConnectionStats `json:"connection"`
	Sync       SyncStats       `json:"sync"`
}

// ConnectionStats holds transport-related statistics
type ConnectionStats struct {
	State             string `json:"state"`
	Degraded          bool   `json:"degraded"`
	ReconnectAttempts int    `json:"reconnectAttempts"`
	QueuedFrames      int    `json:"queuedFrames"`
}

// SyncStats holds store-related statistics
type SyncStats struct {
	Conversations        int    `json:"conversations"`
	TotalUnread          int    `json:"totalUnread"`
	ActiveConversationID string `json:"activeConversationId,omitempty"`
	UsersOnline          int    `json:"usersOnline"`
}
