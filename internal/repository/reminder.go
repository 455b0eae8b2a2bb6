package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// ReminderRepository persists committed reminders.
type ReminderRepository struct {
	db dbtx
}

func NewReminderRepository(pool *pgxpool.Pool) *ReminderRepository {
	return &ReminderRepository{db: pool}
}

func NewReminderRepositoryWithTx(tx pgx.Tx) *ReminderRepository {
	return &ReminderRepository{db: tx}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO reminders (id, title, date, description, priority, category, completed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reminder.ID, reminder.Title, reminder.Date, nullableString(reminder.Description),
		string(reminder.Priority), reminder.Category, reminder.Completed, reminder.CreatedAt,
	)
	return err
}

func (r *ReminderRepository) Get(ctx context.Context, id string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	var description *string
	var priority string
	err := r.db.QueryRow(ctx,
		`SELECT id, title, date, description, priority, category, completed, created_at
		 FROM reminders WHERE id = $1`,
		id,
	).Scan(&reminder.ID, &reminder.Title, &reminder.Date, &description,
		&priority, &reminder.Category, &reminder.Completed, &reminder.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, err
	}
	if description != nil {
		reminder.Description = *description
	}
	reminder.Priority = domain.ReminderPriority(priority)
	return &reminder, nil
}

func (r *ReminderRepository) List(ctx context.Context) ([]*domain.Reminder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, date, description, priority, category, completed, created_at
		 FROM reminders ORDER BY date ASC, created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Reminder
	for rows.Next() {
		var reminder domain.Reminder
		var description *string
		var priority string
		if err := rows.Scan(&reminder.ID, &reminder.Title, &reminder.Date, &description,
			&priority, &reminder.Category, &reminder.Completed, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		if description != nil {
			reminder.Description = *description
		}
		reminder.Priority = domain.ReminderPriority(priority)
		out = append(out, &reminder)
	}
	return out, rows.Err()
}

func (r *ReminderRepository) Complete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE reminders SET completed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// ActionLogRepository persists the committed-action feed.
type ActionLogRepository struct {
	db dbtx
}

func NewActionLogRepository(pool *pgxpool.Pool) *ActionLogRepository {
	return &ActionLogRepository{db: pool}
}

func NewActionLogRepositoryWithTx(tx pgx.Tx) *ActionLogRepository {
	return &ActionLogRepository{db: tx}
}

func (r *ActionLogRepository) Append(ctx context.Context, entry *domain.ActionLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO action_logs (id, action_type, description, status, session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ActionType, entry.Description, entry.Status,
		nullableString(entry.SessionID), entry.CreatedAt,
	)
	return err
}

func (r *ActionLogRepository) List(ctx context.Context, limit int) ([]*domain.ActionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, action_type, description, status, session_id, created_at
		 FROM action_logs ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ActionLog
	for rows.Next() {
		var entry domain.ActionLog
		var sessionID *string
		if err := rows.Scan(&entry.ID, &entry.ActionType, &entry.Description,
			&entry.Status, &sessionID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if sessionID != nil {
			entry.SessionID = *sessionID
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}
