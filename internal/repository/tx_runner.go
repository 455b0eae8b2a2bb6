package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/papyrai/internal/service"
)

// TxRunner provides transactional repositories backed by a pgx pool. The
// confirmation flow uses it so the reminder, the cleared session and the
// action-log entry commit or roll back together.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx runs fn against repositories bound to a single transaction,
// committing when fn returns nil and rolling back otherwise.
func (r *TxRunner) WithTx(ctx context.Context, fn func(service.TxStores) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(&txStores{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txStores struct {
	tx pgx.Tx
}

func (s *txStores) Sessions() service.SessionStoreInterface {
	return NewSessionRepositoryWithTx(s.tx)
}

func (s *txStores) Reminders() service.ReminderStoreInterface {
	return NewReminderRepositoryWithTx(s.tx)
}

func (s *txStores) ActionLog() service.ActionLogStoreInterface {
	return NewActionLogRepositoryWithTx(s.tx)
}
