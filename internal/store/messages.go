package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Murmur/internal/event"
	"Murmur/internal/model"
)

// Messages returns a copy of a conversation's loaded messages in ascending
// chronological order.
func (s *Store) Messages(conversationID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.pages[conversationID]
	if !ok {
		return nil
	}
	out := make([]model.Message, len(ps.messages))
	copy(out, ps.messages)
	return out
}

// HasMoreMessages reports whether older history remains for a conversation.
func (s *Store) HasMoreMessages(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.pages[conversationID]
	return ok && ps.hasMore
}

// FetchMessages loads the first page of a conversation's history. The server
// returns newest-first; the page is stored reversed into ascending order.
func (s *Store) FetchMessages(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	ps := s.pageLocked(conversationID)
	if ps.isLoading {
		s.mu.Unlock()
		return nil
	}
	ps.isLoading = true
	s.mu.Unlock()

	page, err := s.api.Messages(ctx, conversationID, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	ps.isLoading = false

	if err != nil {
		s.logger.Warn("message fetch failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return fmt.Errorf("fetch messages: %w", err)
	}

	ps.messages = reverseChronological(page.Messages)
	ps.hasMore = page.HasMore
	ps.nextCursor = page.NextCursor
	return nil
}

// LoadMoreMessages prepends the next (older) page. No-op unless more history
// exists; concurrent calls for the same conversation cannot duplicate or
// corrupt the list because only one load may be in flight.
func (s *Store) LoadMoreMessages(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	ps := s.pageLocked(conversationID)
	if !ps.hasMore || ps.nextCursor == "" || ps.isLoading {
		s.mu.Unlock()
		return nil
	}
	ps.isLoading = true
	cursor := ps.nextCursor
	s.mu.Unlock()

	page, err := s.api.Messages(ctx, conversationID, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	ps.isLoading = false

	if err != nil {
		return fmt.Errorf("load more messages: %w", err)
	}

	older := reverseChronological(page.Messages)

	// Guard the page boundary: an id already loaded is never prepended twice.
	seen := make(map[string]struct{}, len(ps.messages))
	for i := range ps.messages {
		seen[ps.messages[i].ID] = struct{}{}
	}
	fresh := older[:0]
	for _, msg := range older {
		if _, dup := seen[msg.ID]; !dup {
			fresh = append(fresh, msg)
		}
	}

	ps.messages = append(fresh, ps.messages...)
	ps.hasMore = page.HasMore
	ps.nextCursor = page.NextCursor
	return nil
}

// SendMessage implements the optimistic protocol: a pending placeholder is
// appended immediately, then replaced in place by the server-confirmed
// message, or removed entirely on failure.
func (s *Store) SendMessage(ctx context.Context, conversationID, content string, media []model.Media) (model.Message, error) {
	tempID := "tmp-" + uuid.NewString()
	placeholder := model.Message{
		ID:             tempID,
		ConversationID: conversationID,
		Sender: model.Participant{
			UserID:   s.self.UserID,
			Username: s.self.Username,
		},
		Content:        content,
		Media:          media,
		CreatedAt:      time.Now(),
		DeliveryStatus: model.DeliveryPending,
	}

	s.mu.Lock()
	ps := s.pageLocked(conversationID)
	ps.messages = append(ps.messages, placeholder)
	if idx := s.findConversationLocked(conversationID); idx >= 0 {
		s.touchConversationLocked(idx, placeholder)
	}
	s.mu.Unlock()

	confirmed, err := s.api.SendMessage(ctx, conversationID, content, media)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.removeMessageLocked(conversationID, tempID)
		s.logger.Warn("optimistic send failed",
			zap.String("conversation_id", conversationID),
			zap.String("temp_id", tempID),
			zap.Error(err),
		)
		return model.Message{}, fmt.Errorf("send message: %w", err)
	}

	msg := *confirmed
	msg.DeliveryStatus = model.DeliverySent
	s.settlePlaceholderLocked(conversationID, tempID, msg)

	s.logger.Debug("message reconciled",
		zap.String("temp_id", tempID),
		zap.String("message_id", msg.ID),
	)
	return msg, nil
}

// AddIncomingMessage appends a pushed message. Idempotent: a message id
// already present in the conversation is a no-op. Unread counters move only
// when the conversation is not the active one and the sender is not the
// local user.
func (s *Store) AddIncomingMessage(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addIncomingLocked(msg)
}

func (s *Store) addIncomingLocked(msg model.Message) {
	ps := s.pageLocked(msg.ConversationID)
	if containsID(ps.messages, msg.ID) {
		return
	}

	idx := s.ensureConversationLocked(msg)

	active := s.activeConversationID == msg.ConversationID
	own := msg.Sender.UserID == s.self.UserID
	if active {
		msg.IsRead = true
	} else if !own {
		s.conversations[idx].UnreadCount++
		s.totalUnread++
	}

	ps.messages = insertChronological(ps.messages, msg)
	s.touchConversationLocked(idx, msg)
}

// ConfirmSent settles a socket-side confirmation of a locally-originated
// message. When the placeholder is still present it is replaced in place;
// a confirmation that raced past the REST reconciliation degrades to an
// idempotent incoming append.
func (s *Store) ConfirmSent(tempID string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.DeliveryStatus = model.DeliverySent

	if tempID != "" && s.replacePlaceholderLocked(msg.ConversationID, tempID, msg) {
		return
	}
	s.addIncomingLocked(msg)
}

// MarkAsRead marks the local user's view of a conversation as read:
// counters drop locally, then the server is told over both channels.
func (s *Store) MarkAsRead(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	idx := s.findConversationLocked(conversationID)
	if idx < 0 {
		s.mu.Unlock()
		return model.ErrConversationNotFound
	}

	now := time.Now()
	unread := s.conversations[idx].UnreadCount
	s.conversations[idx].UnreadCount = 0
	s.totalUnread -= unread

	if ps, ok := s.pages[conversationID]; ok {
		for i := range ps.messages {
			m := &ps.messages[i]
			if m.Sender.UserID != s.self.UserID && !m.IsRead {
				m.IsRead = true
				m.ReadAt = &now
			}
		}
	}
	sender := s.sender
	s.mu.Unlock()

	if sender != nil {
		_ = sender.Send(event.EventMessageRead, map[string]string{
			"conversationId": conversationID,
		})
	}

	return s.api.MarkRead(ctx, conversationID)
}

// ApplyReadUpdate handles the push telling us the other participant read our
// messages. The local user's own echo is ignored; unread counters are not
// touched in either case.
func (s *Store) ApplyReadUpdate(conversationID, readBy string, readAt time.Time) {
	if readBy == s.self.UserID {
		s.logger.Debug("read update echo ignored",
			zap.String("conversation_id", conversationID),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps, ok := s.pages[conversationID]
	if !ok {
		return
	}

	at := readAt
	for i := range ps.messages {
		m := &ps.messages[i]
		if m.Sender.UserID == s.self.UserID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &at
		}
	}
}

// UpdateMessageMedia applies an asynchronous attachment-state patch. The
// attachment is matched by id; when the patch carries no id, the first
// attachment of the same type is patched instead.
func (s *Store) UpdateMessageMedia(conversationID, messageID string, patch model.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, ok := s.pages[conversationID]
	if !ok {
		return
	}

	for i := range ps.messages {
		if ps.messages[i].ID != messageID {
			continue
		}

		media := ps.messages[i].Media
		target := -1
		for j := range media {
			if patch.ID != "" && media[j].ID == patch.ID {
				target = j
				break
			}
			if patch.ID == "" && target < 0 && media[j].Type == patch.Type {
				target = j
			}
		}
		if target < 0 {
			s.logger.Warn("media patch matched no attachment",
				zap.String("message_id", messageID),
				zap.String("media_id", patch.ID),
			)
			return
		}

		applyMediaPatch(&media[target], patch)
		return
	}
}

func applyMediaPatch(dst *model.Media, patch model.Media) {
	if patch.URL != "" {
		dst.URL = patch.URL
	}
	if patch.ThumbnailURL != "" {
		dst.ThumbnailURL = patch.ThumbnailURL
	}
	if patch.EncodingStatus != "" {
		dst.EncodingStatus = patch.EncodingStatus
	}
}

// ensureConversationLocked returns the index of a message's conversation,
// creating a minimal one when the message is its first reference. Caller
// must hold the lock.
func (s *Store) ensureConversationLocked(msg model.Message) int {
	if idx := s.findConversationLocked(msg.ConversationID); idx >= 0 {
		return idx
	}

	conv := model.Conversation{
		ID:        msg.ConversationID,
		UpdatedAt: msg.CreatedAt,
	}
	// The lookup endpoint fills in the participant later; until then the
	// sender is the best available summary, unless it is the local user.
	if msg.Sender.UserID != s.self.UserID {
		conv.Participant = msg.Sender
	}
	s.conversations = append(s.conversations, conv)
	return len(s.conversations) - 1
}

func (s *Store) settlePlaceholderLocked(conversationID, tempID string, msg model.Message) {
	if s.replacePlaceholderLocked(conversationID, tempID, msg) {
		return
	}
	// Placeholder already settled by the socket confirmation.
	s.addIncomingLocked(msg)
}

// replacePlaceholderLocked swaps a placeholder for its confirmed message at
// the same position. When the confirmed id already arrived through another
// path, the placeholder is simply removed so no duplicate can coexist.
// Caller must hold the lock.
func (s *Store) replacePlaceholderLocked(conversationID, tempID string, msg model.Message) bool {
	ps, ok := s.pages[conversationID]
	if !ok {
		return false
	}
	for i := range ps.messages {
		if ps.messages[i].ID != tempID {
			continue
		}
		if containsID(ps.messages, msg.ID) {
			ps.messages = append(ps.messages[:i], ps.messages[i+1:]...)
			return true
		}
		ps.messages[i] = msg
		if idx := s.findConversationLocked(conversationID); idx >= 0 {
			s.touchConversationLocked(idx, msg)
		}
		return true
	}
	return false
}

func (s *Store) removeMessageLocked(conversationID, messageID string) {
	ps, ok := s.pages[conversationID]
	if !ok {
		return
	}
	for i := range ps.messages {
		if ps.messages[i].ID == messageID {
			ps.messages = append(ps.messages[:i], ps.messages[i+1:]...)
			return
		}
	}
}

func containsID(list []model.Message, id string) bool {
	for i := range list {
		if list[i].ID == id {
			return true
		}
	}
	return false
}

// insertChronological keeps the list ascending by creation time. The common
// case is an append; out-of-order arrivals walk back to their slot.
func insertChronological(list []model.Message, msg model.Message) []model.Message {
	i := len(list)
	for i > 0 && list[i-1].CreatedAt.After(msg.CreatedAt) {
		i--
	}
	list = append(list, model.Message{})
	copy(list[i+1:], list[i:])
	list[i] = msg
	return list
}

// reverseChronological turns a newest-first server page into ascending order.
func reverseChronological(page []model.Message) []model.Message {
	out := make([]model.Message, len(page))
	for i, msg := range page {
		out[len(page)-1-i] = msg
	}
	return out
}
