package reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
)

// BusRepository интерфейс каталога автобусов
type BusRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Bus, error)
}

// ReservationStore интерфейс хранилища резервов
type ReservationStore interface {
	Get(ctx context.Context, key string) (*domain.Reservation, error)
	Put(ctx context.Context, r *domain.Reservation, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// BookingCreator бронирование места под уже взятой блокировкой
type BookingCreator interface {
	ExecuteHeld(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error)
	Notify(ctx context.Context, resp *create_booking.Response)
}

// LockManager интерфейс блокировок ресурса {bus}:{date}
type LockManager interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (lock.Lock, error)
}

// Metrics интерфейс счётчиков исходов операций с резервами
type Metrics interface {
	IncReservation(op, outcome string)
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
