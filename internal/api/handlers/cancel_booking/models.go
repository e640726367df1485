package cancel_booking

import (
	cancelBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/cancel_booking"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	BusID string `json:"busId" validate:"required,max=64"`
	Date  string `json:"date" validate:"required,date"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	Status    string         `json:"status"` // booking_cancelled | waitlist_cancelled
	BookingID string         `json:"bookingId,omitempty"`
	Position  int            `json:"position,omitempty"` // позиция отменённой записи очереди
	Promoted  *PromotedModel `json:"promoted,omitempty"`
	Dropped   []DroppedEntry `json:"dropped,omitempty"`
}

// PromotedModel сотрудник, получивший освободившееся место
type PromotedModel struct {
	EmployeeID string `json:"employeeId"`
	BookingID  string `json:"bookingId"`
	Position   int    `json:"position"`
}

// DroppedEntry запись очереди, снятая при продвижении
type DroppedEntry struct {
	EmployeeID string `json:"employeeId"`
	Position   int    `json:"position"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CancelBookingRequest) ToUseCaseRequest(employeeID string) (*cancelBooking.Request, error) {
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &cancelBooking.Request{EmployeeID: employeeID, BusID: r.BusID, Date: date}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelBooking.Response) *CancelBookingResponse {
	out := &CancelBookingResponse{Status: string(resp.Outcome)}

	switch resp.Outcome {
	case cancelBooking.OutcomeBookingCancelled:
		out.BookingID = resp.Booking.ID
	case cancelBooking.OutcomeWaitlistCancelled:
		out.Position = resp.WaitlistEntry.Position
	}

	if resp.Promoted != nil {
		out.Promoted = &PromotedModel{
			EmployeeID: resp.Promoted.EmployeeID,
			BookingID:  resp.Promoted.ID,
			Position:   resp.PromotedEntry.Position,
		}
	}
	for _, e := range resp.Dropped {
		out.Dropped = append(out.Dropped, DroppedEntry{EmployeeID: e.EmployeeID, Position: e.Position})
	}

	return out
}
