package cancel_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ShuttleService/internal/api/middleware"
	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	cancelBooking "github.com/m04kA/SMC-ShuttleService/internal/usecase/cancel_booking"
	"github.com/m04kA/SMC-ShuttleService/pkg/logger"
)

type stubUseCase struct {
	resp *cancelBooking.Response
	err  error
}

func (s *stubUseCase) Execute(context.Context, *cancelBooking.Request) (*cancelBooking.Response, error) {
	return s.resp, s.err
}

func doRequest(h *Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/cancel", strings.NewReader(body))
	r = r.WithContext(middleware.WithEmployeeID(r.Context(), "E1"))
	w := httptest.NewRecorder()
	h.Handle(w, r)
	return w
}

func TestHandle_CancelWithPromotion(t *testing.T) {
	uc := &stubUseCase{resp: &cancelBooking.Response{
		Outcome:       cancelBooking.OutcomeBookingCancelled,
		Booking:       &domain.Booking{ID: "b-1", EmployeeID: "E1"},
		Promoted:      &domain.Booking{ID: "b-2", EmployeeID: "E3"},
		PromotedEntry: &domain.WaitlistEntry{EmployeeID: "E3", Position: 2},
		Dropped:       []*domain.WaitlistEntry{{EmployeeID: "E2", Position: 1}},
	}}
	h := NewHandler(uc, logger.Nop())

	w := doRequest(h, `{"busId":"101","date":"2025-10-10"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body CancelBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "booking_cancelled", body.Status)
	assert.Equal(t, "b-1", body.BookingID)
	require.NotNil(t, body.Promoted)
	assert.Equal(t, "E3", body.Promoted.EmployeeID)
	assert.Equal(t, "b-2", body.Promoted.BookingID)
	assert.Equal(t, []DroppedEntry{{EmployeeID: "E2", Position: 1}}, body.Dropped)
}

func TestHandle_CancelWaitlistEntry(t *testing.T) {
	uc := &stubUseCase{resp: &cancelBooking.Response{
		Outcome:       cancelBooking.OutcomeWaitlistCancelled,
		WaitlistEntry: &domain.WaitlistEntry{EmployeeID: "E1", Position: 4},
	}}
	h := NewHandler(uc, logger.Nop())

	w := doRequest(h, `{"busId":"101","date":"2025-10-10"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body CancelBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "waitlist_cancelled", body.Status)
	assert.Equal(t, 4, body.Position)
	assert.Nil(t, body.Promoted)
}

func TestHandle_CancelErrors(t *testing.T) {
	h := NewHandler(&stubUseCase{err: cancelBooking.ErrNotFound}, logger.Nop())
	assert.Equal(t, http.StatusNotFound, doRequest(h, `{"busId":"101","date":"2025-10-10"}`).Code)

	h = NewHandler(&stubUseCase{err: cancelBooking.ErrBusy}, logger.Nop())
	w := doRequest(h, `{"busId":"101","date":"2025-10-10"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	h = NewHandler(&stubUseCase{}, logger.Nop())
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"busId":"101"}`).Code)
}
