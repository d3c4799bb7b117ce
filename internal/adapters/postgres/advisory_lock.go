package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLocker implements ports.KeyLocker with session advisory locks.
// Each held key pins one pooled connection until released.
type AdvisoryLocker struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewAdvisoryLocker scopes lock keys by namespace, e.g. the module name
func NewAdvisoryLocker(pool *pgxpool.Pool, namespace string) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool, namespace: namespace}
}

// Lock blocks until the advisory lock for key is held
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	lockKey := l.namespace + ":" + key
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock %s: %w", key, err)
	}

	return func() {
		// unlock with a fresh context so a cancelled request still frees the key
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, lockKey); err != nil {
			// closing the session drops every lock it holds
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}, nil
}
