package lock

import "errors"

var (
	// ErrBusy возвращается, если блокировку не удалось взять за отведённое время
	// Повторяемая ошибка: вызывающая сторона может повторить запрос с задержкой
	ErrBusy = errors.New("lock: resource is busy")

	// ErrUnavailable возвращается, если хранилище блокировок недоступно
	ErrUnavailable = errors.New("lock: backend unavailable")

	// ErrNotHeld возвращается при освобождении блокировки, которая уже не удерживается
	// (повторный Release или истёкшая аренда)
	ErrNotHeld = errors.New("lock: lock is not held")
)
