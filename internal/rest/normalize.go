package rest

import (
	"encoding/json"

	"Murmur/internal/model"
)

// The direct-lookup endpoint is served in two documented shapes: the
// conversation nested under a "conversation" key, or its fields at the top
// level. Both are normalized here so the store only ever sees one shape.

type nestedConversation struct {
	Conversation *model.Conversation `json:"conversation"`
}

func normalizeConversation(raw json.RawMessage) (*model.Conversation, error) {
	var nested nestedConversation
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested.Conversation != nil && nested.Conversation.ID != "" {
			return nested.Conversation, nil
		}
	}

	var flat model.Conversation
	if err := json.Unmarshal(raw, &flat); err == nil && flat.ID != "" {
		return &flat, nil
	}

	return nil, model.ErrMalformedConversation
}
