package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// SessionRepository persists chat sessions. Message history and the pending
// action are stored as jsonb since they are always read and written whole.
type SessionRepository struct {
	db dbtx
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

func NewSessionRepositoryWithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	var messages []byte
	var pending []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, created_at, messages, pending_action
		 FROM chat_sessions WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.CreatedAt, &messages, &pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &session.Messages); err != nil {
			return nil, fmt.Errorf("decoding session %s messages: %w", id, err)
		}
	}
	if len(pending) > 0 {
		if err := json.Unmarshal(pending, &session.PendingAction); err != nil {
			return nil, fmt.Errorf("decoding session %s pending action: %w", id, err)
		}
	}
	return &session, nil
}

func (r *SessionRepository) Upsert(ctx context.Context, session *domain.ChatSession) error {
	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("encoding session %s messages: %w", session.ID, err)
	}
	var pending []byte
	if session.PendingAction != nil {
		pending, err = json.Marshal(session.PendingAction)
		if err != nil {
			return fmt.Errorf("encoding session %s pending action: %w", session.ID, err)
		}
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO chat_sessions (id, created_at, messages, pending_action)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET messages = EXCLUDED.messages, pending_action = EXCLUDED.pending_action`,
		session.ID, session.CreatedAt, messages, pending,
	)
	return err
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	return err
}
