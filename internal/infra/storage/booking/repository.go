package booking

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
	"employee_id",
	"bus_id",
	"schedule_date",
	"slot",
	"status",
	"created_at",
	"cancelled_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor, dialect psqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: psqlbuilder.New(dialect)}
}

// Create сохраняет новое бронирование
// ID генерируется вызывающей стороной.
// Если в контексте передана активная транзакция, использует её.
// Проверка вместимости и конфликтов слотов выполняется до вызова под блокировкой ресурса,
// уникальный индекс по (employee_id, schedule_date, slot) страхует инвариант на уровне БД.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Insert("bookings").
		Columns(columns...).
		Values(
			booking.ID,
			booking.EmployeeID,
			booking.BusID,
			booking.ScheduleDate,
			booking.Slot,
			booking.Status,
			booking.CreatedAt,
			booking.CancelledAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	// В транзакции вставка идёт под точкой сохранения, чтобы после нарушения уникального индекса
	// транзакция postgres оставалась пригодной для следующих запросов
	inTx := dbmetrics.IsInTransaction(ctx)
	if inTx {
		if _, err := executor.ExecContext(ctx, "SAVEPOINT booking_create"); err != nil {
			return fmt.Errorf("%w: Create - savepoint: %v", ErrExecQuery, err)
		}
	}

	_, err = executor.ExecContext(ctx, query, args...)
	if inTx {
		if err != nil {
			if _, rbErr := executor.ExecContext(ctx, "ROLLBACK TO SAVEPOINT booking_create"); rbErr != nil {
				return fmt.Errorf("%w: Create - rollback to savepoint: %v", ErrExecQuery, rbErr)
			}
		}
		if _, relErr := executor.ExecContext(ctx, "RELEASE SAVEPOINT booking_create"); relErr != nil {
			return fmt.Errorf("%w: Create - release savepoint: %v", ErrExecQuery, relErr)
		}
	}

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: employee=%s, date=%s, slot=%s", ErrDuplicateSlot, booking.EmployeeID, booking.ScheduleDate, booking.Slot)
		}
		return fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// ListActiveByBusAndDate возвращает активные бронирования рейса на дату
// Внутри критической секции вызывается в транзакции, чтобы видеть последние записи
func (r *Repository) ListActiveByBusAndDate(ctx context.Context, busID string, date types.Date) ([]*domain.Booking, error) {
	return r.list(ctx, "ListActiveByBusAndDate", squirrel.Eq{
		"bus_id":        busID,
		"schedule_date": date,
		"status":        domain.BookingStatusActive,
	})
}

// ListActiveByEmployeeAndDate возвращает активные бронирования сотрудника на дату (по всем рейсам)
func (r *Repository) ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.Booking, error) {
	return r.list(ctx, "ListActiveByEmployeeAndDate", squirrel.Eq{
		"employee_id":   employeeID,
		"schedule_date": date,
		"status":        domain.BookingStatusActive,
	})
}

func (r *Repository) list(ctx context.Context, op string, where squirrel.Eq) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).
		From("bookings").
		Where(where).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute select: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, op, err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - iterate rows: %v", ErrExecQuery, op, err)
	}

	return bookings, nil
}

// UpdateStatus переводит активное бронирование в новый статус
// Бронирования не удаляются; для отмены заполняется cancelled_at.
// Если активного бронирования с таким ID нет, возвращает ErrBookingNotFound.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := r.sb.Update("bookings").
		Set("status", status).
		Where(squirrel.Eq{"id": id, "status": domain.BookingStatusActive})
	if status == domain.BookingStatusCancelled {
		builder = builder.Set("cancelled_at", at)
	}

	query, args, err := builder.ToSql()
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
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, cancelledAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.EmployeeID,
		&booking.BusID,
		&booking.ScheduleDate,
		&booking.Slot,
		&booking.Status,
		&createdAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	if cancelledAt.Valid {
		t := cancelledAt.Time
		booking.CancelledAt = &t
	}

	return &booking, nil
}
