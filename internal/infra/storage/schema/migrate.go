package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ShuttleService/pkg/psqlbuilder"
)

var (
	// ErrMigration возвращается при ошибке применения миграции
	ErrMigration = errors.New("schema: migration failed")
)

// migration одна версия схемы; statements выполняются по очереди в одной транзакции
type migration struct {
	version    int
	statements map[psqlbuilder.Dialect][]string
}

var migrations = []migration{
	{
		version: 1,
		statements: map[psqlbuilder.Dialect][]string{
			psqlbuilder.Postgres: {
				`CREATE TABLE IF NOT EXISTS buses (
					id             VARCHAR(64) PRIMARY KEY,
					route          TEXT        NOT NULL,
					capacity       INTEGER     NOT NULL CHECK (capacity > 0),
					departure_time VARCHAR(5)  NOT NULL,
					slot           VARCHAR(32) NOT NULL,
					active         BOOLEAN     NOT NULL DEFAULT TRUE,
					created_at     TIMESTAMPTZ NOT NULL,
					updated_at     TIMESTAMPTZ NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS bookings (
					id            VARCHAR(36) PRIMARY KEY,
					employee_id   VARCHAR(64) NOT NULL,
					bus_id        VARCHAR(64) NOT NULL REFERENCES buses (id),
					schedule_date DATE        NOT NULL,
					slot          VARCHAR(32) NOT NULL,
					status        VARCHAR(16) NOT NULL,
					created_at    TIMESTAMPTZ NOT NULL,
					cancelled_at  TIMESTAMPTZ NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_bus_date ON bookings (bus_id, schedule_date, status)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_employee_date ON bookings (employee_id, schedule_date, status)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_employee_slot_active
					ON bookings (employee_id, schedule_date, slot) WHERE status = 'active'`,
				`CREATE TABLE IF NOT EXISTS waitlist_entries (
					id            BIGSERIAL PRIMARY KEY,
					bus_id        VARCHAR(64) NOT NULL REFERENCES buses (id),
					schedule_date DATE        NOT NULL,
					queue_position INTEGER     NOT NULL,
					employee_id   VARCHAR(64) NOT NULL,
					status        VARCHAR(16) NOT NULL,
					expires_at    TIMESTAMPTZ NULL,
					created_at    TIMESTAMPTZ NOT NULL,
					updated_at    TIMESTAMPTZ NOT NULL,
					UNIQUE (bus_id, schedule_date, queue_position)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_waitlist_employee_date ON waitlist_entries (employee_id, schedule_date, status)`,
			},
			psqlbuilder.SQLite: {
				`CREATE TABLE IF NOT EXISTS buses (
					id             TEXT      PRIMARY KEY,
					route          TEXT      NOT NULL,
					capacity       INTEGER   NOT NULL CHECK (capacity > 0),
					departure_time TEXT      NOT NULL,
					slot           TEXT      NOT NULL,
					active         BOOLEAN   NOT NULL DEFAULT 1,
					created_at     TIMESTAMP NOT NULL,
					updated_at     TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS bookings (
					id            TEXT      PRIMARY KEY,
					employee_id   TEXT      NOT NULL,
					bus_id        TEXT      NOT NULL REFERENCES buses (id),
					schedule_date TEXT      NOT NULL,
					slot          TEXT      NOT NULL,
					status        TEXT      NOT NULL,
					created_at    TIMESTAMP NOT NULL,
					cancelled_at  TIMESTAMP NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_bus_date ON bookings (bus_id, schedule_date, status)`,
				`CREATE INDEX IF NOT EXISTS idx_bookings_employee_date ON bookings (employee_id, schedule_date, status)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_employee_slot_active
					ON bookings (employee_id, schedule_date, slot) WHERE status = 'active'`,
				`CREATE TABLE IF NOT EXISTS waitlist_entries (
					id            INTEGER   PRIMARY KEY AUTOINCREMENT,
					bus_id        TEXT      NOT NULL REFERENCES buses (id),
					schedule_date TEXT      NOT NULL,
					queue_position INTEGER   NOT NULL,
					employee_id   TEXT      NOT NULL,
					status        TEXT      NOT NULL,
					expires_at    TIMESTAMP NULL,
					created_at    TIMESTAMP NOT NULL,
					updated_at    TIMESTAMP NOT NULL,
					UNIQUE (bus_id, schedule_date, queue_position)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_waitlist_employee_date ON waitlist_entries (employee_id, schedule_date, status)`,
			},
		},
	},
}

// Latest возвращает номер последней версии схемы
func Latest() int {
	return migrations[len(migrations)-1].version
}

// Migrate применяет недостающие миграции
// Каждая версия применяется в отдельной транзакции вместе с записью в schema_migrations
func Migrate(ctx context.Context, db *sql.DB, dialect psqlbuilder.Dialect) error {
	if err := dialect.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMigration, err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`); err != nil {
		return fmt.Errorf("%w: create schema_migrations: %v", ErrMigration, err)
	}

	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	sb := psqlbuilder.New(dialect)
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, sb.Insert("schema_migrations").
			Columns("version", "applied_at").
			Values(m.version, time.Now().UTC()), m.statements[dialect]); err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigration, m.version, err)
		}
	}

	return nil
}

type sqlizer interface {
	ToSql() (string, []interface{}, error)
}

func apply(ctx context.Context, db *sql.DB, record sqlizer, statements []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	query, args, err := record.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return tx.Commit()
}

// CurrentVersion возвращает последнюю применённую версию (0, если миграций не было)
func CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("%w: read current version: %v", ErrMigration, err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}
