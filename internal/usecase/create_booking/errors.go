package create_booking

import (
	"errors"

	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
)

// Ошибки валидатора и блокировок возвращаются как есть, чтобы вызывающая сторона
// различала их через errors.Is независимо от операции
var (
	ErrBusy               = lock.ErrBusy
	ErrUnavailable        = lock.ErrUnavailable
	ErrBusNotFound        = capacity.ErrBusNotFound
	ErrCutoffPassed       = capacity.ErrCutoffPassed
	ErrSlotConflict       = capacity.ErrSlotConflict
	ErrDailyLimitExceeded = capacity.ErrDailyLimitExceeded
)

var (
	// ErrMaintenanceMode возвращается, когда запись на рейсы временно закрыта
	ErrMaintenanceMode = errors.New("create_booking: booking is closed for maintenance")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
