package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Murmur/internal/model"
)

func TestUpdateUserOnlineStatusIsAtomicAcrossConversations(t *testing.T) {
	base := time.Now()
	api := &stubAPI{
		conversationsFn: func(cursor string) (*model.ConversationPage, error) {
			return &model.ConversationPage{
				Conversations: []model.Conversation{
					conv("c1", "u1", 0, base.Add(-time.Hour)),
					conv("c2", "u1", 0, base.Add(-time.Hour)),
					conv("c3", "u2", 0, base.Add(-time.Hour)),
				},
			}, nil
		},
	}
	s := newTestStore(t, api, Options{})
	require.NoError(t, s.FetchConversations(context.Background()))

	s.UpdateUserOnlineStatus("u1", true, base)

	p, ok := s.Presence("u1")
	require.True(t, ok)
	require.True(t, p.IsOnline)

	for _, c := range s.Conversations() {
		if c.Participant.UserID == "u1" {
			require.True(t, c.Participant.IsOnline, "conversation %s disagrees with presence map", c.ID)
			require.Equal(t, base, c.Participant.LastSeen)
		} else {
			require.False(t, c.Participant.IsOnline)
		}
	}
}

func TestTypingSetAddRemove(t *testing.T) {
	s := newTestStore(t, &stubAPI{}, Options{TypingTTL: time.Minute})

	s.SetTyping("c1", "u1", true)
	s.SetTyping("c1", "u2", true)
	require.ElementsMatch(t, []string{"u1", "u2"}, s.TypingUsers("c1"))

	s.SetTyping("c1", "u1", false)
	require.Equal(t, []string{"u2"}, s.TypingUsers("c1"))

	// Stop for an unknown user is a no-op.
	s.SetTyping("c1", "u9", false)
	s.SetTyping("c9", "u1", false)
	require.Equal(t, []string{"u2"}, s.TypingUsers("c1"))
}

func TestTypingEntriesExpire(t *testing.T) {
	s := newTestStore(t, &stubAPI{}, Options{TypingTTL: 30 * time.Millisecond})

	// The stop event never arrives; the entry must still clear.
	s.SetTyping("c1", "u1", true)
	require.Eventually(t, func() bool {
		return len(s.TypingUsers("c1")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingRestartResetsExpiry(t *testing.T) {
	s := newTestStore(t, &stubAPI{}, Options{TypingTTL: 60 * time.Millisecond})

	s.SetTyping("c1", "u1", true)
	time.Sleep(40 * time.Millisecond)
	s.SetTyping("c1", "u1", true)
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first start, but only 40ms after the refresh.
	require.Equal(t, []string{"u1"}, s.TypingUsers("c1"))
}

func TestLocalTypingNotifications(t *testing.T) {
	s := newTestStore(t, &stubAPI{}, Options{})
	sender := &recordingSender{}
	s.SetSender(sender)

	s.StartTyping("c1")
	s.StopTyping("c1")

	require.Equal(t, []string{"typing.start", "typing.stop"}, sender.events)
}

func TestActiveConversationFlag(t *testing.T) {
	s := newTestStore(t, &stubAPI{}, Options{})

	require.Empty(t, s.ActiveConversation())
	s.SetActiveConversation("c1")
	require.Equal(t, "c1", s.ActiveConversation())
	s.SetActiveConversation("")
	require.Empty(t, s.ActiveConversation())
}
