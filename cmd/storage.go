package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m04kA/SMC-ShuttleService/internal/config"
	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/booking"
	busRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/schema"
	waitlistRepo "github.com/m04kA/SMC-ShuttleService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ShuttleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/logger"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-ShuttleService/pkg/txmanager"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Общие наборы методов SQL и in-memory репозиториев
type busStore interface {
	GetByID(ctx context.Context, id string) (*domain.Bus, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Bus, error)
	Upsert(ctx context.Context, bus *domain.Bus) error
}

type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListActiveByBusAndDate(ctx context.Context, busID string, date types.Date) ([]*domain.Booking, error)
	ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error
}

type waitlistStore interface {
	Append(ctx context.Context, entry *domain.WaitlistEntry) error
	ListWaiting(ctx context.Context, busID string, date types.Date) ([]*domain.WaitlistEntry, error)
	ListWaitingByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.WaitlistEntry, error)
	FindWaitingByEmployee(ctx context.Context, busID string, date types.Date, employeeID string) (*domain.WaitlistEntry, error)
	UpdateStatus(ctx context.Context, id int64, status domain.WaitlistStatus, at time.Time) error
}

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

type storage struct {
	buses     busStore
	bookings  bookingStore
	waitlist  waitlistStore
	txManager txManager

	// nil для database.driver = "memory"
	db *sql.DB
}

func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStorage подключает хранилище сущностей согласно database.driver и применяет миграции
func openStorage(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics, stop <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Driver == config.DriverMemory {
		store := memory.NewStore()
		log.Info("Using in-memory storage, data will not survive restart")
		return &storage{
			buses:     store.Buses(),
			bookings:  store.Bookings(),
			waitlist:  store.Waitlist(),
			txManager: txmanager.Noop{},
		}, nil
	}

	dialect := psqlbuilder.Dialect(cfg.Driver)
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	if dialect == psqlbuilder.SQLite {
		// SQLite допускает только одного писателя
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Successfully connected to database (driver=%s)", cfg.Driver)

	if err := schema.Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Database schema is at version %d", schema.Latest())

	var wrapped *dbmetrics.DB
	if m != nil {
		wrapped = dbmetrics.Wrap(db, m)
		wrapped.CollectPoolStats(15*time.Second, stop)
		log.Info("Database metrics collection started")
	} else {
		wrapped = dbmetrics.Wrap(db, nil)
	}

	return &storage{
		buses:     busRepo.NewRepository(wrapped, dialect),
		bookings:  bookingRepo.NewRepository(wrapped, dialect),
		waitlist:  waitlistRepo.NewRepository(wrapped, dialect),
		txManager: txmanager.NewTransactionManager(wrapped),
		db:        db,
	}, nil
}

// openLockDB открывает отдельный пул соединений для advisory-локов PostgreSQL
// Блокировка держит своё соединение всё время критической секции, поэтому
// пул репозиториев для них не используется
func openLockDB(dbCfg config.DatabaseConfig, lockCfg config.LockConfig) (*sql.DB, error) {
	db, err := sql.Open(config.DriverPostgres, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open lock database: %w", err)
	}

	db.SetMaxOpenConns(lockCfg.MaxConns)
	db.SetMaxIdleConns(lockCfg.MaxConns)
	db.SetConnMaxLifetime(time.Duration(dbCfg.ConnMaxLifetime) * time.Second)
	return db, nil
}

// seedCatalog записывает автобусы из конфигурации в каталог
func seedCatalog(ctx context.Context, buses busStore, catalog config.CatalogConfig, log *logger.Logger) error {
	now := time.Now().UTC()
	for _, b := range catalog.Buses {
		if err := buses.Upsert(ctx, b.ToDomain(now)); err != nil {
			return fmt.Errorf("failed to seed bus %s: %w", b.ID, err)
		}
	}
	log.Info("Catalog seeded: %d buses", len(catalog.Buses))
	return nil
}
