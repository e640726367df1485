package get_available_seats

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// BusRepository интерфейс каталога автобусов
type BusRepository interface {
	List(ctx context.Context, activeOnly bool) ([]*domain.Bus, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListActiveByBusAndDate(ctx context.Context, busID string, date types.Date) ([]*domain.Booking, error)
}

// WaitlistRepository интерфейс репозитория листа ожидания
type WaitlistRepository interface {
	ListWaiting(ctx context.Context, busID string, date types.Date) ([]*domain.WaitlistEntry, error)
}

// Validator интерфейс проверки допустимости бронирования
type Validator interface {
	Validate(in capacity.Input) error
	Policy() domain.BookingPolicy
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
