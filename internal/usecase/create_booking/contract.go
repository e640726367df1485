package create_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// BusRepository интерфейс каталога автобусов
type BusRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Bus, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	ListActiveByBusAndDate(ctx context.Context, busID string, date types.Date) ([]*domain.Booking, error)
	ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.Booking, error)
}

// WaitlistRepository интерфейс репозитория листа ожидания
type WaitlistRepository interface {
	Append(ctx context.Context, entry *domain.WaitlistEntry) error
	FindWaitingByEmployee(ctx context.Context, busID string, date types.Date, employeeID string) (*domain.WaitlistEntry, error)
}

// Validator интерфейс проверки допустимости бронирования
type Validator interface {
	Validate(in capacity.Input) error
	Policy() domain.BookingPolicy
}

// LockManager интерфейс блокировок ресурса {bus}:{date}
type LockManager interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (lock.Lock, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher интерфейс публикации событий бронирования
type EventPublisher interface {
	Publish(ctx context.Context, event notifier.Event) error
}

// Metrics интерфейс счётчиков исходов операций
type Metrics interface {
	IncBooking(op, outcome string)
}

// IDGenerator генератор идентификаторов бронирований
type IDGenerator interface {
	NewID() string
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// UUIDGenerator генерирует идентификаторы бронирований в формате UUID v4
type UUIDGenerator struct{}

// NewID возвращает новый уникальный идентификатор
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
