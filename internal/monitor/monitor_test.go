package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"Murmur/internal/auth"
	"Murmur/internal/model"
	"Murmur/internal/store"
	"Murmur/internal/transport"
)

func TestSnapshotOffline(t *testing.T) {
	logger := zaptest.NewLogger(t)
	creds, err := auth.NewCredentials("")
	require.NoError(t, err)

	s := store.New(nil, auth.Identity{UserID: "me"}, logger, store.Options{})
	m := transport.NewManager("ws://localhost:0/ws", creds, nil, logger, transport.Options{})
	service := NewService(m, s)

	s.AddIncomingMessage(model.Message{
		ID:             "m1",
		ConversationID: "c1",
		Sender:         model.Participant{UserID: "u1"},
		CreatedAt:      time.Now(),
	})
	s.UpdateUserOnlineStatus("u1", true, time.Now())

	snapshot := service.Snapshot()
	require.Equal(t, "offline", snapshot.Status)
	require.Equal(t, string(transport.StateDisconnected), snapshot.Connection.State)
	require.Equal(t, 1, snapshot.Sync.Conversations)
	require.Equal(t, 1, snapshot.Sync.TotalUnread)
	require.Equal(t, 1, snapshot.Sync.UsersOnline)
}
