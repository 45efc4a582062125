package router

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"Murmur/internal/event"
	"Murmur/internal/model"
)

// Actions is the store surface the router mutates through. The router itself
// holds no state.
type Actions interface {
	AddIncomingMessage(msg model.Message)
	ConfirmSent(tempID string, msg model.Message)
	ApplyReadUpdate(conversationID, readBy string, readAt time.Time)
	UpdateMessageMedia(conversationID, messageID string, patch model.Media)
	UpdateUserOnlineStatus(userID string, isOnline bool, lastSeen time.Time)
	SetTyping(conversationID, userID string, isTyping bool)
}

type handlerFunc func(payload json.RawMessage) error

// Router decodes tagged frames and dispatches each to exactly one handler.
// Unknown types and undecodable payloads are dropped with a diagnostic
// record; nothing propagates.
type Router struct {
	actions  Actions
	logger   *zap.Logger
	handlers map[string]handlerFunc
}

func NewRouter(actions Actions, logger *zap.Logger) *Router {
	r := &Router{
		actions: actions,
		logger:  logger,
	}

	r.handlers = map[string]handlerFunc{
		event.EventConnectionSuccess:   r.onConnectionSuccess,
		event.EventInitialOnlineStatus: r.onInitialOnlineStatus,
		event.EventMessageNew:          r.onMessageNew,
		event.EventMessageSent:         r.onMessageSent,
		event.EventMessageReadUpdate:   r.onReadUpdate,
		event.EventMessageVideoUpdated: r.onVideoUpdated,
		event.EventUserOnline:          r.onUserOnline,
		event.EventUserOffline:         r.onUserOffline,
		event.EventTypingNotification:  r.onTyping,
		event.EventError:               r.onServerError,
	}
	return r
}

// HandleFrame dispatches one inbound frame.
func (r *Router) HandleFrame(frame event.Frame) {
	handler, ok := r.handlers[frame.Type]
	if !ok {
		r.logger.Warn("unknown event type dropped", zap.String("type", frame.Type))
		return
	}

	if err := handler(frame.Payload); err != nil {
		r.logger.Warn("frame dropped",
			zap.String("type", frame.Type),
			zap.Error(err),
		)
	}
}

func (r *Router) onConnectionSuccess(json.RawMessage) error {
	r.logger.Info("push connection acknowledged")
	return nil
}

func (r *Router) onInitialOnlineStatus(payload json.RawMessage) error {
	var status event.InitialOnlineStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return err
	}
	for _, user := range status.Users {
		r.actions.UpdateUserOnlineStatus(user.UserID, user.IsOnline, user.LastSeen)
	}
	return nil
}

func (r *Router) onMessageNew(payload json.RawMessage) error {
	var in event.NewMessage
	if err := json.Unmarshal(payload, &in); err != nil {
		return err
	}
	if in.Message.ID == "" || in.Message.ConversationID == "" {
		return model.ErrMessageNotFound
	}
	r.actions.AddIncomingMessage(in.Message)
	return nil
}

func (r *Router) onMessageSent(payload json.RawMessage) error {
	var sent event.MessageSent
	if err := json.Unmarshal(payload, &sent); err != nil {
		return err
	}
	if sent.Message.ID == "" {
		return model.ErrMessageNotFound
	}
	r.actions.ConfirmSent(sent.TempID, sent.Message)
	return nil
}

func (r *Router) onReadUpdate(payload json.RawMessage) error {
	var update event.ReadUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return err
	}
	r.actions.ApplyReadUpdate(update.ConversationID, update.ReadBy, update.ReadAt)
	return nil
}

func (r *Router) onVideoUpdated(payload json.RawMessage) error {
	var update event.VideoUpdated
	if err := json.Unmarshal(payload, &update); err != nil {
		return err
	}
	r.actions.UpdateMessageMedia(update.ConversationID, update.MessageID, update.Media)
	return nil
}

func (r *Router) onUserOnline(payload json.RawMessage) error {
	var status event.UserStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return err
	}
	r.actions.UpdateUserOnlineStatus(status.UserID, true, status.LastSeen)
	return nil
}

func (r *Router) onUserOffline(payload json.RawMessage) error {
	var status event.UserStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return err
	}
	r.actions.UpdateUserOnlineStatus(status.UserID, false, status.LastSeen)
	return nil
}

func (r *Router) onTyping(payload json.RawMessage) error {
	var typing event.Typing
	if err := json.Unmarshal(payload, &typing); err != nil {
		return err
	}
	r.actions.SetTyping(typing.ConversationID, typing.UserID, typing.IsTyping)
	return nil
}

func (r *Router) onServerError(payload json.RawMessage) error {
	var notice event.ErrorNotice
	if err := json.Unmarshal(payload, &notice); err != nil {
		return err
	}
	r.logger.Warn("server error notice", zap.String("message", notice.Message))
	return nil
}
