package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"Murmur/internal/model"
)

// Conversations returns a copy of the conversation list, most recently
// active first.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Conversation returns one conversation by id.
func (s *Store) Conversation(conversationID string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.findConversationLocked(conversationID); i >= 0 {
		return s.conversations[i], true
	}
	return model.Conversation{}, false
}

// FetchConversations replaces the conversation list with the first page from
// the server. On failure the prior state is left untouched.
func (s *Store) FetchConversations(ctx context.Context) error {
	s.mu.Lock()
	if s.loadingConversations {
		s.mu.Unlock()
		return nil
	}
	s.loadingConversations = true
	s.mu.Unlock()

	page, err := s.api.Conversations(ctx, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingConversations = false

	if err != nil {
		s.logger.Warn("conversation fetch failed", zap.Error(err))
		return fmt.Errorf("fetch conversations: %w", err)
	}

	convs := make([]model.Conversation, len(page.Conversations))
	copy(convs, page.Conversations)

	total := 0
	for i := range convs {
		s.mergePresenceLocked(&convs[i])
		total += convs[i].UnreadCount
	}

	s.conversations = convs
	s.convHasMore = page.HasMore
	s.convCursor = page.NextCursor
	s.totalUnread = total

	s.logger.Debug("conversations replaced",
		zap.Int("count", len(convs)),
		zap.Int("total_unread", total),
	)
	return nil
}

// LoadMoreConversations appends the next page. No-op when no further page
// exists or a load is already running.
func (s *Store) LoadMoreConversations(ctx context.Context) error {
	s.mu.Lock()
	if !s.convHasMore || s.convCursor == "" || s.loadingConversations {
		s.mu.Unlock()
		return nil
	}
	s.loadingConversations = true
	cursor := s.convCursor
	s.mu.Unlock()

	page, err := s.api.Conversations(ctx, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingConversations = false

	if err != nil {
		return fmt.Errorf("load more conversations: %w", err)
	}

	for i := range page.Conversations {
		conv := page.Conversations[i]
		if s.findConversationLocked(conv.ID) >= 0 {
			continue
		}
		s.mergePresenceLocked(&conv)
		s.conversations = append(s.conversations, conv)
		s.totalUnread += conv.UnreadCount
	}

	s.convHasMore = page.HasMore
	s.convCursor = page.NextCursor
	return nil
}

// ConversationByUsername resolves or creates a conversation from a direct
// lookup. Response-shape normalization happens at the REST boundary; the
// store only ever sees the canonical shape.
func (s *Store) ConversationByUsername(ctx context.Context, username string) (model.Conversation, error) {
	if username == "" {
		return model.Conversation{}, model.ErrMissingUsername
	}

	conv, err := s.api.ConversationByUsername(ctx, username)
	if err != nil {
		return model.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findConversationLocked(conv.ID); i >= 0 {
		// Already tracked; local state wins over the lookup response.
		return s.conversations[i], nil
	}

	added := *conv
	s.mergePresenceLocked(&added)
	s.conversations = append(s.conversations, added)
	s.totalUnread += added.UnreadCount
	return added, nil
}

// mergePresenceLocked reconciles a REST-provided participant against the
// presence map. The socket is the higher-priority source: a fresher pushed
// value is never regressed by a stale REST response. Caller must hold the
// lock.
func (s *Store) mergePresenceLocked(conv *model.Conversation) {
	userID := conv.Participant.UserID
	if userID == "" {
		return
	}

	known, ok := s.presence[userID]
	if !ok || conv.Participant.LastSeen.After(known.LastSeen) {
		s.presence[userID] = model.Presence{
			UserID:   userID,
			IsOnline: conv.Participant.IsOnline,
			LastSeen: conv.Participant.LastSeen,
		}
		return
	}

	conv.Participant.IsOnline = known.IsOnline
	conv.Participant.LastSeen = known.LastSeen
}

// touchConversationLocked updates a conversation's preview from a message and
// moves it to the front of the list. Caller must hold the lock.
func (s *Store) touchConversationLocked(idx int, msg model.Message) {
	conv := &s.conversations[idx]
	conv.LastMessage = &model.LastMessage{
		MessageID: msg.ID,
		Type:      previewType(msg),
		Content:   msg.Content,
		SentAt:    msg.CreatedAt,
	}
	if msg.CreatedAt.After(conv.UpdatedAt) {
		conv.UpdatedAt = msg.CreatedAt
	}

	if idx > 0 {
		moved := s.conversations[idx]
		copy(s.conversations[1:idx+1], s.conversations[:idx])
		s.conversations[0] = moved
	}
}

func previewType(msg model.Message) string {
	if len(msg.Media) > 0 {
		return msg.Media[0].Type
	}
	return "text"
}
