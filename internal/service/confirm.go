package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/telemetry"
)

// SessionStoreInterface defines the store interface for chat sessions
type SessionStoreInterface interface {
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	Upsert(ctx context.Context, session *domain.ChatSession) error
	Delete(ctx context.Context, id string) error
}

// ReminderStoreInterface defines the store interface for committed reminders
type ReminderStoreInterface interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	Get(ctx context.Context, id string) (*domain.Reminder, error)
	List(ctx context.Context) ([]*domain.Reminder, error)
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ActionLogStoreInterface defines the store interface for the action feed
type ActionLogStoreInterface interface {
	Append(ctx context.Context, entry *domain.ActionLog) error
	List(ctx context.Context, limit int) ([]*domain.ActionLog, error)
}

// TxStores bundles the stores a confirmed commit mutates together.
type TxStores interface {
	Sessions() SessionStoreInterface
	Reminders() ReminderStoreInterface
	ActionLog() ActionLogStoreInterface
}

// TxRunnerInterface executes fn against stores bound to one transaction,
// committing when fn succeeds and rolling back everything when it fails.
// A nil runner means the tier has no transactions and commits step by step.
type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(TxStores) error) error
}

// SessionLocks serializes turns per session id. Distinct sessions proceed
// concurrently; two turns on the same session never interleave.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionLocks creates an empty lock registry.
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-session mutex and returns its unlock function.
func (l *SessionLocks) Lock(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Decision is a resolved user verdict on a pending action.
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionReject  Decision = "reject"
)

// ParseDecision maps free-form user text to a Decision. Used by the chat
// CLI; the HTTP API takes the structured values directly.
func ParseDecision(text string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "confirm", "yes", "y", "ok", "sure", "do it":
		return DecisionConfirm, nil
	case "reject", "no", "n", "cancel", "nevermind":
		return DecisionReject, nil
	}
	return "", domain.ErrInvalidDecision
}

// Outcome is the result of resolving a pending action.
type Outcome struct {
	Decision   Decision
	ReminderID string
	Reminder   *domain.Reminder
	Message    string
}

// ConfirmationService owns the propose/confirm lifecycle of side effects.
type ConfirmationService struct {
	sessions  SessionStoreInterface
	reminders ReminderStoreInterface
	actionLog ActionLogStoreInterface
	txRunner  TxRunnerInterface
	locks     *SessionLocks
	uuidGen   UUIDGenerator
	now       func() time.Time
}

// NewConfirmationService creates a ConfirmationService. The lock registry is
// shared with the orchestrator so chat turns and confirmations on the same
// session serialize. txRunner may be nil for tiers without transactions.
func NewConfirmationService(
	sessions SessionStoreInterface,
	reminders ReminderStoreInterface,
	actionLog ActionLogStoreInterface,
	locks *SessionLocks,
	txRunner TxRunnerInterface,
) *ConfirmationService {
	return &ConfirmationService{
		sessions:  sessions,
		reminders: reminders,
		actionLog: actionLog,
		txRunner:  txRunner,
		locks:     locks,
		uuidGen:   &DefaultUUIDGenerator{},
		now:       time.Now,
	}
}

// ProposeOnSession installs a pending action on an already-locked session,
// superseding any prior unresolved proposal. The caller persists the session.
func (s *ConfirmationService) ProposeOnSession(session *domain.ChatSession, kind domain.ActionKind, payload domain.ReminderPayload) *domain.PendingAction {
	action := &domain.PendingAction{
		Kind:      kind,
		Payload:   payload,
		SessionID: session.ID,
		CreatedAt: s.now().UTC(),
	}
	session.SetPendingAction(action)
	return action
}

// Resolve applies the user's verdict to the session's pending action.
// Confirm commits a reminder and an action-log entry; reject discards with
// no store mutation. A commit failure keeps the pending action in place so
// the user can retry.
func (s *ConfirmationService) Resolve(ctx context.Context, sessionID string, decision Decision) (*Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "ConfirmationService.Resolve", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "resolve",
	})
	defer span.End()

	if decision != DecisionConfirm && decision != DecisionReject {
		return nil, domain.ErrInvalidDecision
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if session.PendingAction == nil {
		return nil, domain.ErrNothingToConfirm
	}

	if decision == DecisionReject {
		session.TakePendingAction()
		if err := s.sessions.Upsert(ctx, session); err != nil {
			span.SetError(err)
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to persist session", err)
		}
		return &Outcome{Decision: DecisionReject, Message: "Okay, I won't do that."}, nil
	}

	pending := session.PendingAction
	reminder := domain.NewReminder(s.uuidGen.NewString(), pending.Payload, s.now().UTC())
	session.TakePendingAction()
	entry := &domain.ActionLog{
		ID:          s.uuidGen.NewString(),
		ActionType:  string(pending.Kind),
		Description: fmt.Sprintf("Created reminder %q for %s", reminder.Title, reminder.Date),
		Status:      "completed",
		SessionID:   sessionID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.commit(ctx, session, reminder, entry); err != nil {
		// Nothing persisted; the pending action is still stored and the
		// confirm can be retried
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage,
			"failed to commit confirmed action", err)
	}

	return &Outcome{
		Decision:   DecisionConfirm,
		ReminderID: reminder.ID,
		Reminder:   reminder,
		Message:    fmt.Sprintf("Done. Reminder %q set for %s.", reminder.Title, reminder.Date),
	}, nil
}

// commit persists the reminder, the cleared session and the log entry.
// With a transaction runner the three writes land or roll back as one, so a
// crash or storage failure never leaves a committed reminder beside a still
// pending action. Without one they apply in order under the session lock;
// reminder create is first so a failure leaves the pending action stored.
func (s *ConfirmationService) commit(ctx context.Context, session *domain.ChatSession, reminder *domain.Reminder, entry *domain.ActionLog) error {
	if s.txRunner != nil {
		return s.txRunner.WithTx(ctx, func(stores TxStores) error {
			if err := stores.Reminders().Create(ctx, reminder); err != nil {
				return fmt.Errorf("create reminder: %w", err)
			}
			if err := stores.Sessions().Upsert(ctx, session); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			if err := stores.ActionLog().Append(ctx, entry); err != nil {
				return fmt.Errorf("append action log: %w", err)
			}
			return nil
		})
	}

	if err := s.reminders.Create(ctx, reminder); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.actionLog.Append(ctx, entry); err != nil {
		log.Printf("confirm: action log append failed for session %s: %v", session.ID, err)
	}
	return nil
}
