package get_available_seats

import (
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// Request модель запроса на получение свободных мест
type Request struct {
	Date types.Date // дата поездки
	Slot string     // фильтр по слоту (опционально)
}

// Response модель ответа со списком рейсов на дату
type Response struct {
	Date  types.Date
	Buses []BusSeats
}

// BusSeats загрузка одного рейса
type BusSeats struct {
	BusID          string
	Route          string
	Slot           string
	DepartureTime  types.TimeString
	TotalSeats     int
	TakenSeats     int
	AvailableSeats int
	WaitlistLength int
	BookingOpen    bool // false, если запись на рейс уже закрыта
}
