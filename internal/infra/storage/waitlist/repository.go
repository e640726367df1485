package waitlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

var columns = []string{
	"id",
	"bus_id",
	"schedule_date",
	"queue_position",
	"employee_id",
	"status",
	"expires_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий листа ожидания
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория листа ожидания
func NewRepository(db DBExecutor, dialect psqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: psqlbuilder.New(dialect)}
}

// Append добавляет запись в конец очереди рейса и заполняет ID и Position
// Позиция = MAX(queue_position) + 1 по (bus_id, schedule_date), включая уже обработанные записи,
// поэтому номера в очереди не переиспользуются.
// Должен вызываться под блокировкой ресурса {bus}:{date}, иначе возможны дубли позиций
// (их отсечёт UNIQUE (bus_id, schedule_date, queue_position)).
func (r *Repository) Append(ctx context.Context, entry *domain.WaitlistEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select("COALESCE(MAX(queue_position), 0) + 1").
		From("waitlist_entries").
		Where(squirrel.Eq{"bus_id": entry.BusID, "schedule_date": entry.ScheduleDate}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Append - build position query: %v", ErrBuildQuery, err)
	}

	var position int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&position); err != nil {
		return fmt.Errorf("%w: Append - next position: %v", ErrScanRow, err)
	}

	query, args, err = r.sb.Insert("waitlist_entries").
		Columns(columns[1:]...).
		Values(
			entry.BusID,
			entry.ScheduleDate,
			position,
			entry.EmployeeID,
			entry.Status,
			entry.ExpiresAt,
			entry.CreatedAt,
			entry.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}
	entry.Position = position

	return nil
}

// GetByID получает запись листа ожидания по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).
		From("waitlist_entries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	entry, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan entry: %v", ErrScanRow, err)
	}

	return entry, nil
}

// ListWaiting возвращает ожидающие записи рейса на дату в порядке позиции (FIFO)
func (r *Repository) ListWaiting(ctx context.Context, busID string, date types.Date) ([]*domain.WaitlistEntry, error) {
	return r.list(ctx, "ListWaiting", squirrel.Eq{
		"bus_id":        busID,
		"schedule_date": date,
		"status":        domain.WaitlistStatusWaiting,
	})
}

// ListWaitingByEmployeeAndDate возвращает ожидающие записи сотрудника на дату по всем рейсам
func (r *Repository) ListWaitingByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.WaitlistEntry, error) {
	return r.list(ctx, "ListWaitingByEmployeeAndDate", squirrel.Eq{
		"employee_id":   employeeID,
		"schedule_date": date,
		"status":        domain.WaitlistStatusWaiting,
	})
}

// FindWaitingByEmployee возвращает ожидающую запись сотрудника на рейс и дату
func (r *Repository) FindWaitingByEmployee(ctx context.Context, busID string, date types.Date, employeeID string) (*domain.WaitlistEntry, error) {
	entries, err := r.list(ctx, "FindWaitingByEmployee", squirrel.Eq{
		"bus_id":        busID,
		"schedule_date": date,
		"employee_id":   employeeID,
		"status":        domain.WaitlistStatusWaiting,
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEntryNotFound
	}

	return entries[0], nil
}

func (r *Repository) list(ctx context.Context, op string, where squirrel.Eq) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).
		From("waitlist_entries").
		Where(where).
		OrderBy("queue_position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute select: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan entry: %v", ErrScanRow, op, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - iterate rows: %v", ErrExecQuery, op, err)
	}

	return entries, nil
}

// UpdateStatus переводит ожидающую запись в converted или cancelled
// Если ожидающей записи с таким ID нет, возвращает ErrEntryNotFound.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.WaitlistStatus, at time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Update("waitlist_entries").
		Set("status", status).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "status": domain.WaitlistStatusWaiting}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	var entry domain.WaitlistEntry
	var expiresAt, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.BusID,
		&entry.ScheduleDate,
		&entry.Position,
		&entry.EmployeeID,
		&entry.Status,
		&expiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		entry.ExpiresAt = &t
	}
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return &entry, nil
}
