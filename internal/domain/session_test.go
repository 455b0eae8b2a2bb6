package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSessionAppendPreservesOrder(t *testing.T) {
	s := NewChatSession("s1", time.Now())

	s.Append(Message{Role: RoleUser, Content: "first"})
	s.Append(Message{Role: RoleAssistant, Content: "second"})
	s.Append(Message{Role: RoleUser, Content: "third"})

	require.Len(t, s.Messages, 3)
	assert.Equal(t, "first", s.Messages[0].Content)
	assert.Equal(t, "second", s.Messages[1].Content)
	assert.Equal(t, "third", s.Messages[2].Content)
}

func TestRecentMessages(t *testing.T) {
	s := NewChatSession("s1", time.Now())
	for _, c := range []string{"a", "b", "c", "d"} {
		s.Append(Message{Role: RoleUser, Content: c})
	}

	recent := s.RecentMessages(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, "d", recent[1].Content)

	assert.Len(t, s.RecentMessages(10), 4)
	assert.Len(t, s.RecentMessages(0), 4)
}

func TestPendingActionSupersedes(t *testing.T) {
	s := NewChatSession("s1", time.Now())

	first := &PendingAction{Kind: ActionCreateReminder, Payload: ReminderPayload{Title: "first", Date: "2026-01-01"}}
	second := &PendingAction{Kind: ActionCreateReminder, Payload: ReminderPayload{Title: "second", Date: "2026-02-02"}}

	s.SetPendingAction(first)
	s.SetPendingAction(second)

	taken := s.TakePendingAction()
	require.NotNil(t, taken)
	assert.Equal(t, "second", taken.Payload.Title)
	assert.Nil(t, s.PendingAction)
	assert.Nil(t, s.TakePendingAction())
}
