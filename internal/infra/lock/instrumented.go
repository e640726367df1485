package lock

import (
	"context"
	"errors"
	"time"
)

// Результаты захвата блокировки для метрик
const (
	ResultAcquired    = "acquired"
	ResultBusy        = "busy"
	ResultUnavailable = "unavailable"
	ResultCancelled   = "cancelled"
)

// InstrumentedManager оборачивает Manager и пишет время ожидания и удержания блокировок
type InstrumentedManager struct {
	next     Manager
	backend  string
	observer Observer
}

// Instrument оборачивает менеджер метриками; если observer == nil, возвращает next как есть
func Instrument(next Manager, backend string, observer Observer) Manager {
	if observer == nil {
		return next
	}
	return &InstrumentedManager{next: next, backend: backend, observer: observer}
}

// Acquire замеряет время ожидания и результат захвата
func (m *InstrumentedManager) Acquire(ctx context.Context, key string, timeout time.Duration) (Lock, error) {
	start := time.Now()
	l, err := m.next.Acquire(ctx, key, timeout)
	m.observer.ObserveLockAcquire(m.backend, resultOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return &instrumentedLock{Lock: l, manager: m, acquiredAt: time.Now()}, nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultAcquired
	case errors.Is(err, ErrBusy):
		return ResultBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCancelled
	default:
		return ResultUnavailable
	}
}

type instrumentedLock struct {
	Lock
	manager    *InstrumentedManager
	acquiredAt time.Time
}

func (l *instrumentedLock) Release(ctx context.Context) error {
	l.manager.observer.ObserveLockHold(l.manager.backend, time.Since(l.acquiredAt))
	return l.Lock.Release(ctx)
}
