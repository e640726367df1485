// Package storagetest открывает SQLite-базу с применённой схемой для тестов репозиториев и use case
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/schema"
	"github.com/m04kA/SMC-ShuttleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/psqlbuilder"
)

// OpenSQLite создает файловую SQLite-базу во временной директории теста и применяет миграции
// Одно соединение: SQLite сериализует запись, а транзакции видны только через свой коннект
func OpenSQLite(t testing.TB) *dbmetrics.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "shuttle.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, schema.Migrate(context.Background(), db, psqlbuilder.SQLite))

	return dbmetrics.Wrap(db, nil)
}
