package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresManager блокировка на сессионных advisory-локах PostgreSQL
// Каждая блокировка занимает отдельное соединение из пула до Release.
// Пул должен быть отдельным от пула репозиториев: держатели блокировок
// берут из него соединения для транзакций.
type PostgresManager struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewPostgresManager создает менеджер advisory-блокировок
func NewPostgresManager(db *sql.DB, pollInterval time.Duration) *PostgresManager {
	return &PostgresManager{db: db, pollInterval: pollInterval}
}

// Acquire берет advisory-лок по hashtext(key), ожидая не дольше timeout
func (m *PostgresManager) Acquire(ctx context.Context, key string, timeout time.Duration) (Lock, error) {
	started := time.Now()

	// Ожидание свободного соединения входит в timeout; при timeout = 0 ждём один интервал опроса
	connCtx, cancel := context.WithTimeout(ctx, max(timeout, m.pollInterval, time.Millisecond))
	conn, err := m.db.Conn(connCtx)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: no free connection", ErrBusy, key)
		}
		return nil, fmt.Errorf("%w: %s: get connection: %v", ErrUnavailable, key, err)
	}

	remaining := timeout - time.Since(started)
	if remaining < 0 {
		remaining = 0
	}

	err = poll(ctx, key, remaining, m.pollInterval, func(ctx context.Context) (bool, error) {
		var acquired bool
		err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&acquired)
		return acquired, err
	})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &postgresLock{conn: conn, key: key}, nil
}

type postgresLock struct {
	conn *sql.Conn
	key  string
}

func (l *postgresLock) Key() string { return l.key }

func (l *postgresLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	defer func() {
		_ = l.conn.Close()
		l.conn = nil
	}()

	var unlocked bool
	if err := l.conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, l.key).Scan(&unlocked); err != nil {
		return fmt.Errorf("%w: release %s: %v", ErrUnavailable, l.key, err)
	}
	if !unlocked {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	return nil
}
