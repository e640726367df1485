package bookings

import (
	"context"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// BusRepository интерфейс каталога автобусов
type BusRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Bus, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListActiveByBusAndDate(ctx context.Context, busID string, date types.Date) ([]*domain.Booking, error)
	ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.Booking, error)
}

// WaitlistRepository интерфейс репозитория листа ожидания
type WaitlistRepository interface {
	ListWaiting(ctx context.Context, busID string, date types.Date) ([]*domain.WaitlistEntry, error)
	ListWaitingByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.WaitlistEntry, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
