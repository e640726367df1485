package bus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"route",
	"capacity",
	"departure_time",
	"slot",
	"active",
	"created_at",
	"updated_at",
}

// Repository репозиторий каталога автобусов
// Каталог для движка бронирования только на чтение, запись идёт лишь при сидировании
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория автобусов
func NewRepository(db DBExecutor, dialect psqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: psqlbuilder.New(dialect)}
}

// GetByID получает автобус по номеру
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Bus, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).
		From("buses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	bus, err := scanBus(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan bus: %v", ErrScanRow, err)
	}

	return bus, nil
}

// List возвращает автобусы каталога, отсортированные по времени отправления
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]*domain.Bus, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.sb.Select(columns...).
		From("buses").
		OrderBy("departure_time ASC", "id ASC")
	if activeOnly {
		builder = builder.Where(squirrel.Eq{"active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	buses := make([]*domain.Bus, 0)
	for rows.Next() {
		bus, err := scanBus(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan bus: %v", ErrScanRow, err)
		}
		buses = append(buses, bus)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - iterate rows: %v", ErrExecQuery, err)
	}

	return buses, nil
}

// Upsert создает или обновляет автобус каталога
// created_at при обновлении не меняется
func (r *Repository) Upsert(ctx context.Context, bus *domain.Bus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Insert("buses").
		Columns(columns...).
		Values(
			bus.ID,
			bus.Route,
			bus.Capacity,
			bus.DepartureTime,
			bus.Slot,
			bus.Active,
			bus.CreatedAt,
			bus.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			route = EXCLUDED.route,
			capacity = EXCLUDED.capacity,
			departure_time = EXCLUDED.departure_time,
			slot = EXCLUDED.slot,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBus(row rowScanner) (*domain.Bus, error) {
	var bus domain.Bus
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&bus.ID,
		&bus.Route,
		&bus.Capacity,
		&bus.DepartureTime,
		&bus.Slot,
		&bus.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	bus.CreatedAt = createdAt.Time
	bus.UpdatedAt = updatedAt.Time

	return &bus, nil
}
