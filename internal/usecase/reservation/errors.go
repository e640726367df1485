package reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
)

var (
	ErrBusy        = lock.ErrBusy
	ErrUnavailable = lock.ErrUnavailable
	ErrBusNotFound = capacity.ErrBusNotFound
)

var (
	// ErrReservedByOther возвращается, если ресурс зарезервирован другим сотрудником
	// Конкретная ошибка имеет тип *ReservedByOtherError с оставшимся временем
	ErrReservedByOther = errors.New("reservation: resource is reserved by another employee")

	// ErrInvalidToken возвращается, если токен не соответствует сотруднику и ресурсу
	ErrInvalidToken = errors.New("reservation: invalid token")

	// ErrExpired возвращается, если резерва нет или срок его действия истёк
	ErrExpired = errors.New("reservation: reservation expired")

	// ErrMaintenanceMode возвращается, когда запись на рейсы временно закрыта
	ErrMaintenanceMode = errors.New("reservation: booking is closed for maintenance")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reservation: internal error")
)

// ReservedByOtherError ресурс удерживается чужим резервом ещё SecondsLeft секунд
type ReservedByOtherError struct {
	SecondsLeft int
}

func (e *ReservedByOtherError) Error() string {
	return fmt.Sprintf("%s: %ds left", ErrReservedByOther.Error(), e.SecondsLeft)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrReservedByOther)
func (e *ReservedByOtherError) Is(target error) bool {
	return target == ErrReservedByOther
}
