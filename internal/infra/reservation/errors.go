package reservation

import "errors"

var (
	// ErrNotFound возвращается, если резерва по ключу нет
	ErrNotFound = errors.New("reservation.store: reservation not found")

	// ErrUnavailable возвращается, если хранилище резервов недоступно
	ErrUnavailable = errors.New("reservation.store: backend unavailable")

	// ErrCorrupted возвращается, если сохранённый резерв не удалось декодировать
	ErrCorrupted = errors.New("reservation.store: corrupted reservation")
)
