package create_booking

import (
	"net/http"
	"time"

	createBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	BusID string `json:"busId" validate:"required,max=64"`
	Date  string `json:"date" validate:"required,date"` // "2025-10-10"
}

// BookingResponse HTTP response model
// Для Confirmed заполнен booking, для Waitlisted позиция в очереди
type BookingResponse struct {
	Status          string        `json:"status"` // confirmed | waitlisted
	Booking         *BookingModel `json:"booking,omitempty"`
	WaitlistEntryID *int64        `json:"waitlistEntryId,omitempty"`
	Position        *int          `json:"position,omitempty"`
}

// BookingModel данные подтвержденного бронирования
type BookingModel struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employeeId"`
	BusID        string `json:"busId"`
	ScheduleDate string `json:"scheduleDate"`
	Slot         string `json:"slot"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(employeeID string) (*createBooking.Request, error) {
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		EmployeeID: employeeID,
		BusID:      r.BusID,
		Date:       date,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	if resp.IsConfirmed() {
		b := resp.Booking
		return &BookingResponse{
			Status: string(resp.Outcome),
			Booking: &BookingModel{
				ID:           b.ID,
				EmployeeID:   b.EmployeeID,
				BusID:        b.BusID,
				ScheduleDate: b.ScheduleDate.String(),
				Slot:         b.Slot,
				Status:       string(b.Status),
				CreatedAt:    b.CreatedAt.Format(time.RFC3339),
			},
		}
	}

	position := resp.Position
	out := &BookingResponse{Status: string(resp.Outcome), Position: &position}
	if resp.WaitlistEntry != nil {
		id := resp.WaitlistEntry.ID
		out.WaitlistEntryID = &id
	}
	return out
}

// StatusCode 201 для подтвержденного бронирования, 202 для очереди
func StatusCode(resp *createBooking.Response) int {
	if resp.IsConfirmed() {
		return http.StatusCreated
	}
	return http.StatusAccepted
}
