package get_available_seats

import (
	getAvailableSeats "github.com/m04kA/SMC-ShuttleService/internal/usecase/get_available_seats"
)

// AvailableSeatsResponse HTTP response model
type AvailableSeatsResponse struct {
	Date  string     `json:"date"`
	Buses []BusSeats `json:"buses"`
}

// BusSeats загрузка рейса
type BusSeats struct {
	BusID          string `json:"busId"`
	Route          string `json:"route"`
	Slot           string `json:"slot"`
	DepartureTime  string `json:"departureTime"`
	TotalSeats     int    `json:"totalSeats"`
	TakenSeats     int    `json:"takenSeats"`
	AvailableSeats int    `json:"availableSeats"`
	WaitlistLength int    `json:"waitlistLength"`
	BookingOpen    bool   `json:"bookingOpen"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSeats.Response) *AvailableSeatsResponse {
	buses := make([]BusSeats, len(resp.Buses))
	for i, b := range resp.Buses {
		buses[i] = BusSeats{
			BusID:          b.BusID,
			Route:          b.Route,
			Slot:           b.Slot,
			DepartureTime:  b.DepartureTime.String(),
			TotalSeats:     b.TotalSeats,
			TakenSeats:     b.TakenSeats,
			AvailableSeats: b.AvailableSeats,
			WaitlistLength: b.WaitlistLength,
			BookingOpen:    b.BookingOpen,
		}
	}
	return &AvailableSeatsResponse{Date: resp.Date.String(), Buses: buses}
}
