package store

import (
	"time"

	"go.uber.org/zap"

	"Murmur/internal/event"
	"Murmur/internal/model"
)

// Presence returns the tracked presence of a user, if any.
func (s *Store) Presence(userID string) (model.Presence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presence[userID]
	return p, ok
}

// UpdateUserOnlineStatus updates the presence map and every conversation
// referencing the user in one transition; the two can never disagree.
func (s *Store) UpdateUserOnlineStatus(userID string, isOnline bool, lastSeen time.Time) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.presence[userID] = model.Presence{
		UserID:   userID,
		IsOnline: isOnline,
		LastSeen: lastSeen,
	}

	for i := range s.conversations {
		if s.conversations[i].Participant.UserID == userID {
			s.conversations[i].Participant.IsOnline = isOnline
			s.conversations[i].Participant.LastSeen = lastSeen
		}
	}
}

// SetActiveConversation marks the conversation currently being viewed; the
// empty string means none. Only incoming-message unread accounting reads it.
func (s *Store) SetActiveConversation(conversationID string) {
	s.mu.Lock()
	s.activeConversationID = conversationID
	s.mu.Unlock()
}

// ActiveConversation returns the conversation currently being viewed.
func (s *Store) ActiveConversation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeConversationID
}

// SetTyping adds or removes a user from a conversation's typing set. Every
// entry carries a bounded local expiry so a dropped stop event cannot pin an
// indicator forever.
func (s *Store) SetTyping(conversationID, userID string, isTyping bool) {
	if conversationID == "" || userID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timers, ok := s.typing[conversationID]
	if !ok {
		if !isTyping {
			return
		}
		timers = make(map[string]*time.Timer)
		s.typing[conversationID] = timers
	}

	if existing, ok := timers[userID]; ok {
		existing.Stop()
	}

	if !isTyping {
		delete(timers, userID)
		if len(timers) == 0 {
			delete(s.typing, conversationID)
		}
		return
	}

	timers[userID] = time.AfterFunc(s.typingTTL, func() {
		s.SetTyping(conversationID, userID, false)
		s.logger.Debug("typing entry expired",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
		)
	})
}

// TypingUsers returns the users currently typing in a conversation.
func (s *Store) TypingUsers(conversationID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	timers, ok := s.typing[conversationID]
	if !ok {
		return nil
	}
	users := make([]string, 0, len(timers))
	for userID := range timers {
		users = append(users, userID)
	}
	return users
}

// StartTyping notifies the server that the local user started typing.
func (s *Store) StartTyping(conversationID string) {
	s.sendTyping(event.EventTypingStart, conversationID)
}

// StopTyping notifies the server that the local user stopped typing.
func (s *Store) StopTyping(conversationID string) {
	s.sendTyping(event.EventTypingStop, conversationID)
}

func (s *Store) sendTyping(eventType, conversationID string) {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()

	if sender == nil {
		return
	}
	_ = sender.Send(eventType, map[string]string{
		"conversationId": conversationID,
	})
}
