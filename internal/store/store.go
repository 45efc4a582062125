package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"Murmur/internal/auth"
	"Murmur/internal/model"
	"Murmur/internal/rest"
)

const defaultTypingTTL = 6 * time.Second

// Sender is the socket side the store talks back through. It is satisfied by
// the transport manager; a nil sender means push is unavailable and
// socket-bound notifications are silently skipped.
type Sender interface {
	Send(eventType string, payload interface{}) error
}

type Options struct {
	// TypingTTL bounds how long a typing indicator may live without a stop
	// event. Zero selects the default.
	TypingTTL time.Duration
}

// pageState is the loaded message window of one conversation.
type pageState struct {
	messages   []model.Message
	hasMore    bool
	nextCursor string
	isLoading  bool
}

// Store is the single owner of conversation, message, presence, and typing
// state. Every mutation happens under one lock, so readers never observe a
// half-applied transition.
type Store struct {
	api    rest.API
	self   auth.Identity
	logger *zap.Logger

	typingTTL time.Duration

	mu     sync.RWMutex
	sender Sender

	conversations        []model.Conversation
	convHasMore          bool
	convCursor           string
	loadingConversations bool

	pages    map[string]*pageState
	presence map[string]model.Presence
	typing   map[string]map[string]*time.Timer

	activeConversationID string
	totalUnread          int
}

func New(api rest.API, self auth.Identity, logger *zap.Logger, opts Options) *Store {
	ttl := opts.TypingTTL
	if ttl <= 0 {
		ttl = defaultTypingTTL
	}

	return &Store{
		api:       api,
		self:      self,
		logger:    logger,
		typingTTL: ttl,
		pages:     make(map[string]*pageState),
		presence:  make(map[string]model.Presence),
		typing:    make(map[string]map[string]*time.Timer),
	}
}

// SetSender wires the socket transport in after construction. The transport
// needs the router, the router needs the store, so this closes the loop.
func (s *Store) SetSender(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// Self returns the local user identity.
func (s *Store) Self() auth.Identity {
	return s.self
}

// TotalUnread returns the global unread counter.
func (s *Store) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalUnread
}

// ClearAll resets the store to its empty initial state in one transition.
// Used on logout.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, timers := range s.typing {
		for _, timer := range timers {
			timer.Stop()
		}
	}

	s.conversations = nil
	s.convHasMore = false
	s.convCursor = ""
	s.loadingConversations = false
	s.pages = make(map[string]*pageState)
	s.presence = make(map[string]model.Presence)
	s.typing = make(map[string]map[string]*time.Timer)
	s.activeConversationID = ""
	s.totalUnread = 0

	s.logger.Info("store cleared")
}

// Stats returns a snapshot of the store for monitoring.
func (s *Store) Stats() model.SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	online := 0
	for _, p := range s.presence {
		if p.IsOnline {
			online++
		}
	}

	return model.SyncStats{
		Conversations:        len(s.conversations),
		TotalUnread:          s.totalUnread,
		ActiveConversationID: s.activeConversationID,
		UsersOnline:          online,
	}
}

// pageLocked returns the page state for a conversation, creating it on first
// use. Caller must hold the lock.
func (s *Store) pageLocked(conversationID string) *pageState {
	ps, ok := s.pages[conversationID]
	if !ok {
		ps = &pageState{}
		s.pages[conversationID] = ps
	}
	return ps
}

// findConversationLocked returns the index of a conversation, or -1.
// Caller must hold the lock.
func (s *Store) findConversationLocked(conversationID string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			return i
		}
	}
	return -1
}
