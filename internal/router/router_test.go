package router

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"Murmur/internal/event"
	"Murmur/internal/model"
)

// recordingActions captures the store mutations the router dispatches.
type recordingActions struct {
	incoming  []model.Message
	confirmed []string
	reads     []string
	media     []string
	presence  map[string]bool
	typing    []string
}

func newRecordingActions() *recordingActions {
	return &recordingActions{presence: make(map[string]bool)}
}

func (a *recordingActions) AddIncomingMessage(msg model.Message) {
	a.incoming = append(a.incoming, msg)
}

func (a *recordingActions) ConfirmSent(tempID string, msg model.Message) {
	a.confirmed = append(a.confirmed, tempID+"/"+msg.ID)
}

func (a *recordingActions) ApplyReadUpdate(conversationID, readBy string, _ time.Time) {
	a.reads = append(a.reads, conversationID+"/"+readBy)
}

func (a *recordingActions) UpdateMessageMedia(conversationID, messageID string, _ model.Media) {
	a.media = append(a.media, conversationID+"/"+messageID)
}

func (a *recordingActions) UpdateUserOnlineStatus(userID string, isOnline bool, _ time.Time) {
	a.presence[userID] = isOnline
}

func (a *recordingActions) SetTyping(conversationID, userID string, isTyping bool) {
	a.typing = append(a.typing, conversationID+"/"+userID)
}

func frame(t *testing.T, eventType string, payload interface{}) event.Frame {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return event.Frame{Type: eventType, Payload: data}
}

func newTestRouter(t *testing.T) (*Router, *recordingActions) {
	t.Helper()
	actions := newRecordingActions()
	return NewRouter(actions, zaptest.NewLogger(t)), actions
}

func TestDispatchMessageNew(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(frame(t, event.EventMessageNew, event.NewMessage{
		Message: model.Message{ID: "m1", ConversationID: "c1"},
	}))

	require.Len(t, actions.incoming, 1)
	require.Equal(t, "m1", actions.incoming[0].ID)
}

func TestDispatchMessageSent(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(frame(t, event.EventMessageSent, event.MessageSent{
		Message: model.Message{ID: "m1", ConversationID: "c1"},
		TempID:  "tmp-1",
	}))

	require.Equal(t, []string{"tmp-1/m1"}, actions.confirmed)
}

func TestDispatchReadUpdate(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(frame(t, event.EventMessageReadUpdate, event.ReadUpdate{
		ConversationID: "c1",
		ReadBy:         "u1",
		ReadAt:         time.Now(),
	}))

	require.Equal(t, []string{"c1/u1"}, actions.reads)
}

func TestDispatchVideoUpdated(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(frame(t, event.EventMessageVideoUpdated, event.VideoUpdated{
		ConversationID: "c1",
		MessageID:      "m1",
		Media:          model.Media{ID: "a1", EncodingStatus: "ready"},
	}))

	require.Equal(t, []string{"c1/m1"}, actions.media)
}

func TestDispatchPresenceEvents(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(frame(t, event.EventInitialOnlineStatus, event.InitialOnlineStatus{
		Users: []model.Presence{
			{UserID: "u1", IsOnline: true},
			{UserID: "u2", IsOnline: false},
		},
	}))
	r.HandleFrame(frame(t, event.EventUserOnline, event.UserStatus{UserID: "u3"}))
	r.HandleFrame(frame(t, event.EventUserOffline, event.UserStatus{UserID: "u1"}))

	require.Equal(t, map[string]bool{"u1": false, "u2": false, "u3": true}, actions.presence)
}

func TestDispatchTyping(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(frame(t, event.EventTypingNotification, event.Typing{
		ConversationID: "c1",
		UserID:         "u1",
		IsTyping:       true,
	}))

	require.Equal(t, []string{"c1/u1"}, actions.typing)
}

func TestUnknownEventTypeIsDropped(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(event.Frame{Type: "galaxy.exploded", Payload: json.RawMessage(`{}`)})

	require.Empty(t, actions.incoming)
	require.Empty(t, actions.typing)
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	r, actions := newTestRouter(t)

	r.HandleFrame(event.Frame{Type: event.EventMessageNew, Payload: json.RawMessage(`{notjson`)})
	r.HandleFrame(event.Frame{Type: event.EventMessageNew, Payload: json.RawMessage(`{"message":{}}`)})

	require.Empty(t, actions.incoming)
}

func TestServerErrorAndConnectionSuccessAreHandled(t *testing.T) {
	r, _ := newTestRouter(t)

	// Neither may panic or mutate anything; they only log.
	r.HandleFrame(frame(t, event.EventConnectionSuccess, struct{}{}))
	r.HandleFrame(frame(t, event.EventError, event.ErrorNotice{Message: "rate limited"}))
}
