package capacity

import "errors"

var (
	// ErrBusNotFound автобус не существует или выведен из расписания
	ErrBusNotFound = errors.New("capacity: bus not found or inactive")

	// ErrCutoffPassed дата в прошлом или запись на рейс уже закрыта
	ErrCutoffPassed = errors.New("capacity: booking cutoff has passed")

	// ErrSlotConflict у сотрудника уже есть бронирование в этом слоте на эту дату
	ErrSlotConflict = errors.New("capacity: slot conflict")

	// ErrDailyLimitExceeded превышен лимит бронирований на день
	ErrDailyLimitExceeded = errors.New("capacity: daily booking limit exceeded")

	// ErrFull все места на рейсе заняты
	// Не является отказом: координатор переводит запрос в лист ожидания
	ErrFull = errors.New("capacity: bus is full")
)
