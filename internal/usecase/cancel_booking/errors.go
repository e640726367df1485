package cancel_booking

import (
	"errors"

	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
)

var (
	ErrBusy        = lock.ErrBusy
	ErrUnavailable = lock.ErrUnavailable
)

var (
	// ErrNotFound возвращается, когда у сотрудника нет ни активного бронирования, ни записи в листе ожидания
	ErrNotFound = errors.New("cancel_booking: booking not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancel_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_booking: internal error")
)
