package repository

import (
	"context"
	"time"
)

// ExecutionLockRepository implements the trigger's execution lock as a
// conditional write keyed by pipeline name: the insert-or-update only
// succeeds when no unexpired lock exists, so two concurrent triggers
// cannot both acquire it.
type ExecutionLockRepository struct {
	db *DB
}

// NewExecutionLockRepository creates a new execution lock repository
func NewExecutionLockRepository(db *DB) *ExecutionLockRepository {
	return &ExecutionLockRepository{db: db}
}

// EnsureSchema creates the lock table if it does not exist.
func (r *ExecutionLockRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS execution_locks (
			pipeline_name TEXT PRIMARY KEY,
			owner_token   TEXT NOT NULL,
			expires_at    TIMESTAMPTZ NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Acquire takes the lock when it is free or expired. Returns false when
// another owner still holds it.
func (r *ExecutionLockRepository) Acquire(ctx context.Context, pipelineName, owner string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO execution_locks (pipeline_name, owner_token, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		ON CONFLICT (pipeline_name) DO UPDATE
		SET owner_token = EXCLUDED.owner_token, expires_at = EXCLUDED.expires_at
		WHERE execution_locks.expires_at < NOW()
	`

	res, err := r.db.ExecContext(ctx, query, pipelineName, owner, int64(ttl.Seconds()))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Release frees the lock if owner still holds it. Releasing a lock taken
// over by someone else is a no-op.
func (r *ExecutionLockRepository) Release(ctx context.Context, pipelineName, owner string) error {
	query := `DELETE FROM execution_locks WHERE pipeline_name = $1 AND owner_token = $2`
	_, err := r.db.ExecContext(ctx, query, pipelineName, owner)
	return err
}
