package lock

import (
	"context"
	"time"
)

// Lock удерживаемая блокировка ресурса
type Lock interface {
	Key() string
	Release(ctx context.Context) error
}

// Manager взаимное исключение по строковому ключу ресурса
// Acquire ждёт не дольше timeout и возвращает ErrBusy; timeout <= 0 означает одну попытку без ожидания.
// Отмена ctx вызывающей стороной возвращает ctx.Err().
type Manager interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (Lock, error)
}

// Observer получатель метрик блокировок (реализуется *metrics.Metrics)
type Observer interface {
	ObserveLockAcquire(backend, result string, wait time.Duration)
	ObserveLockHold(backend string, held time.Duration)
}
