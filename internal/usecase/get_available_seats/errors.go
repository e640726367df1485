package get_available_seats

import "errors"

var (
	// ErrInvalidDate возвращается, если дата уже прошла
	ErrInvalidDate = errors.New("invalid schedule date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
