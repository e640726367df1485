package notifier

import "time"

// EventType тип события бронирования
type EventType string

const (
	EventBookingConfirmed  EventType = "booking.confirmed"
	EventBookingWaitlisted EventType = "booking.waitlisted"
	EventBookingCancelled  EventType = "booking.cancelled"
	EventBookingPromoted   EventType = "booking.promoted"
	EventWaitlistCancelled EventType = "waitlist.cancelled"
)

// Event событие, публикуемое после завершения операции и освобождения блокировки
// Доставкой уведомлений сотрудникам занимаются потребители топика
type Event struct {
	Type       EventType `json:"type"`
	BookingID  string    `json:"bookingId,omitempty"`
	EmployeeID string    `json:"employeeId"`
	BusID      string    `json:"busId"`
	Date       string    `json:"date"`
	Slot       string    `json:"slot,omitempty"`
	Position   int       `json:"position,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// key ключ партиции: события одного рейса на дату попадают в одну партицию и сохраняют порядок
func (e Event) key() string {
	return e.BusID + ":" + e.Date
}
