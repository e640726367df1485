package models

import (
	"time"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	BusID        string     `json:"busId"`
	ScheduleDate string     `json:"scheduleDate"` // "2025-10-10"
	Slot         string     `json:"slot"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
}

// WaitlistEntryResponse ответ с данными записи в листе ожидания
type WaitlistEntryResponse struct {
	ID           int64      `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	BusID        string     `json:"busId"`
	ScheduleDate string     `json:"scheduleDate"`
	Position     int        `json:"position"`
	Status       string     `json:"status"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// BusBookingsResponse состав рейса на дату
type BusBookingsResponse struct {
	BusID         string                   `json:"busId"`
	Route         string                   `json:"route"`
	Slot          string                   `json:"slot"`
	DepartureTime string                   `json:"departureTime"` // "07:30"
	ScheduleDate  string                   `json:"scheduleDate"`
	Capacity      int                      `json:"capacity"`
	Taken         int                      `json:"taken"`
	Available     int                      `json:"available"`
	Bookings      []*BookingResponse       `json:"bookings"`
	Waitlist      []*WaitlistEntryResponse `json:"waitlist"`
}

// EmployeeBookingsResponse бронирования и очереди сотрудника на дату
type EmployeeBookingsResponse struct {
	EmployeeID   string                   `json:"employeeId"`
	ScheduleDate string                   `json:"scheduleDate"`
	Bookings     []*BookingResponse       `json:"bookings"`
	Waitlist     []*WaitlistEntryResponse `json:"waitlist"`
}

// FromDomainBooking конвертирует доменную модель в response
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:           b.ID,
		EmployeeID:   b.EmployeeID,
		BusID:        b.BusID,
		ScheduleDate: b.ScheduleDate.String(),
		Slot:         b.Slot,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		CancelledAt:  b.CancelledAt,
	}
}

// FromDomainWaitlistEntry конвертирует запись очереди в response
func FromDomainWaitlistEntry(e *domain.WaitlistEntry) *WaitlistEntryResponse {
	return &WaitlistEntryResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		BusID:        e.BusID,
		ScheduleDate: e.ScheduleDate.String(),
		Position:     e.Position,
		Status:       string(e.Status),
		ExpiresAt:    e.ExpiresAt,
		CreatedAt:    e.CreatedAt,
	}
}

// FromDomainBus собирает состав рейса
func FromDomainBus(bus *domain.Bus, date types.Date, bookings []*domain.Booking, waiting []*domain.WaitlistEntry) *BusBookingsResponse {
	available := bus.Capacity - len(bookings)
	if available < 0 {
		available = 0
	}
	return &BusBookingsResponse{
		BusID:         bus.ID,
		Route:         bus.Route,
		Slot:          bus.Slot,
		DepartureTime: bus.DepartureTime.String(),
		ScheduleDate:  date.String(),
		Capacity:      bus.Capacity,
		Taken:         len(bookings),
		Available:     available,
		Bookings:      fromBookings(bookings),
		Waitlist:      fromEntries(waiting),
	}
}

// FromDomainEmployee собирает бронирования сотрудника
func FromDomainEmployee(employeeID string, date types.Date, bookings []*domain.Booking, waiting []*domain.WaitlistEntry) *EmployeeBookingsResponse {
	return &EmployeeBookingsResponse{
		EmployeeID:   employeeID,
		ScheduleDate: date.String(),
		Bookings:     fromBookings(bookings),
		Waitlist:     fromEntries(waiting),
	}
}

func fromBookings(bookings []*domain.Booking) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromDomainBooking(b))
	}
	return out
}

func fromEntries(entries []*domain.WaitlistEntry) []*WaitlistEntryResponse {
	out := make([]*WaitlistEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromDomainWaitlistEntry(e))
	}
	return out
}
