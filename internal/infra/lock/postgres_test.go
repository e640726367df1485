package lock

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestPostgresManager(t *testing.T) {
	dsn := os.Getenv("SHUTTLE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SHUTTLE_TEST_POSTGRES_DSN is not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	m := NewPostgresManager(db, 10*time.Millisecond)
	ctx := context.Background()

	l, err := m.Acquire(ctx, "B1:2025-10-10", time.Second)
	require.NoError(t, err)

	_, err = m.Acquire(ctx, "B1:2025-10-10", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, l.Release(ctx))
	require.ErrorIs(t, l.Release(ctx), ErrNotHeld)

	again, err := m.Acquire(ctx, "B1:2025-10-10", 0)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

// Ожидание соединения из исчерпанного пула ограничено timeout и не требует сервера PostgreSQL
func TestPostgresManager_ExhaustedPoolIsBusy(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	held, err := db.Conn(ctx)
	require.NoError(t, err)

	m := NewPostgresManager(db, 10*time.Millisecond)

	started := time.Now()
	_, err = m.Acquire(ctx, "B1:2025-10-10", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrBusy)
	assert.Less(t, time.Since(started), time.Second)

	// отменённый контекст вызывающего возвращается как есть
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Acquire(cancelled, "B1:2025-10-10", time.Second)
	require.ErrorIs(t, err, context.Canceled)

	// соединение освободилось: ошибка запроса к не-PostgreSQL базе уже не ErrBusy
	require.NoError(t, held.Close())
	_, err = m.Acquire(ctx, "B1:2025-10-10", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, db.Stats().InUse)
}
