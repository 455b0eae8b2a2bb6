package domain

import "time"

// MessageRole identifies the author of a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single entry in a session's history. Append-only; insertion
// order is causal order.
type Message struct {
	Role                MessageRole
	Content             string
	Timestamp           time.Time
	AttachedDocumentIDs []string
}

// ActionKind identifies a side-effecting operation the LLM may propose
type ActionKind string

const (
	ActionCreateReminder ActionKind = "create_reminder"
)

// PendingAction is an LLM-proposed side effect awaiting explicit user
// confirmation. At most one exists per session; a new proposal supersedes
// an unconfirmed prior one.
type PendingAction struct {
	Kind      ActionKind
	Payload   ReminderPayload
	SessionID string
	CreatedAt time.Time
}

// ChatSession holds a conversation's history and its pending-action slot.
type ChatSession struct {
	ID            string
	CreatedAt     time.Time
	Messages      []Message
	PendingAction *PendingAction
}

// NewChatSession creates an empty session.
func NewChatSession(id string, createdAt time.Time) *ChatSession {
	return &ChatSession{
		ID:        id,
		CreatedAt: createdAt,
	}
}

// Clone returns a deep copy. Stores hand out clones so a caller holding a
// session never shares mutable state with an in-flight turn.
func (s *ChatSession) Clone() *ChatSession {
	out := &ChatSession{ID: s.ID, CreatedAt: s.CreatedAt}
	if s.PendingAction != nil {
		action := *s.PendingAction
		out.PendingAction = &action
	}
	if len(s.Messages) > 0 {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
		for i := range out.Messages {
			if ids := out.Messages[i].AttachedDocumentIDs; len(ids) > 0 {
				out.Messages[i].AttachedDocumentIDs = append([]string(nil), ids...)
			}
		}
	}
	return out
}

// Append adds a message to the history.
func (s *ChatSession) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// RecentMessages returns the last n messages in order.
func (s *ChatSession) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// SetPendingAction installs a proposal, superseding any prior one.
func (s *ChatSession) SetPendingAction(action *PendingAction) {
	s.PendingAction = action
}

// TakePendingAction removes and returns the pending action, or nil.
func (s *ChatSession) TakePendingAction() *PendingAction {
	action := s.PendingAction
	s.PendingAction = nil
	return action
}
