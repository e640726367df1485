package cancel_booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ShuttleService/pkg/logger"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/txmanager"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testDate = types.NewDate(2025, time.October, 10)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notifier.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *recordingPublisher) byType(t notifier.EventType) []notifier.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notifier.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store     *memory.Store
	create    *create_booking.UseCase
	cancel    *UseCase
	clock     *fixedClock
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	created := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	for _, b := range []*domain.Bus{
		{ID: "B1", Route: "Office - Metro", Capacity: 2, DepartureTime: "07:30", Slot: domain.SlotMorning, Active: true},
		{ID: "B2", Route: "Office - Station", Capacity: 2, DepartureTime: "08:00", Slot: domain.SlotMorning, Active: true},
	} {
		b.CreatedAt, b.UpdatedAt = created, created
		require.NoError(t, store.Buses().Upsert(context.Background(), b))
	}

	f := &fixture{
		store:     store,
		clock:     &fixedClock{t: time.Date(2025, time.October, 9, 12, 0, 0, 0, time.UTC)},
		publisher: &recordingPublisher{},
		metrics:   metrics.New("shuttle-test", prometheus.NewRegistry()),
	}

	validator := capacity.NewValidator(domain.DefaultBookingPolicy())
	locker := lock.NewMemoryManager()

	f.create = create_booking.NewUseCase(
		store.Buses(), store.Bookings(), store.Waitlist(),
		validator, locker, time.Second, txmanager.Noop{},
		f.publisher, f.metrics, logger.Nop(),
	).WithTimeProvider(f.clock)

	f.cancel = NewUseCase(
		store.Buses(), store.Bookings(), store.Waitlist(),
		validator, locker, time.Second, txmanager.Noop{},
		f.publisher, f.metrics, logger.Nop(),
	).WithTimeProvider(f.clock)

	return f
}

func (f *fixture) book(t *testing.T, employee, bus string) *create_booking.Response {
	t.Helper()
	resp, err := f.create.Execute(context.Background(), &create_booking.Request{EmployeeID: employee, BusID: bus, Date: testDate})
	require.NoError(t, err)
	return resp
}

func (f *fixture) activeEmployees(t *testing.T, bus string) []string {
	t.Helper()
	active, err := f.store.Bookings().ListActiveByBusAndDate(context.Background(), bus, testDate)
	require.NoError(t, err)
	out := make([]string, 0, len(active))
	for _, b := range active {
		out = append(out, b.EmployeeID)
	}
	return out
}

func cancelReq(employee, bus string) *Request {
	return &Request{EmployeeID: employee, BusID: bus, Date: testDate}
}

func TestExecute_CancelPromotesHeadOfQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// E1 и E2 бронируют одновременно: оба места должны достаться им без дублей
	var wg sync.WaitGroup
	confirmed := make([]bool, 2)
	for i, employee := range []string{"E1", "E2"} {
		wg.Add(1)
		go func(i int, employee string) {
			defer wg.Done()
			resp, err := f.create.Execute(ctx, &create_booking.Request{EmployeeID: employee, BusID: "B1", Date: testDate})
			if assert.NoError(t, err) {
				confirmed[i] = resp.IsConfirmed()
			}
		}(i, employee)
	}
	wg.Wait()
	require.Equal(t, []bool{true, true}, confirmed)
	require.ElementsMatch(t, []string{"E1", "E2"}, f.activeEmployees(t, "B1"))

	waiting := f.book(t, "E3", "B1")
	require.Equal(t, create_booking.OutcomeWaitlisted, waiting.Outcome)
	require.Equal(t, 1, waiting.Position)
	f.publisher.reset()

	resp, err := f.cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeBookingCancelled, resp.Outcome)
	assert.Equal(t, domain.BookingStatusCancelled, resp.Booking.Status)
	require.NotNil(t, resp.Promoted)
	assert.Equal(t, "E3", resp.Promoted.EmployeeID)
	assert.Equal(t, domain.WaitlistStatusConverted, resp.PromotedEntry.Status)
	assert.Empty(t, resp.Dropped)

	assert.ElementsMatch(t, []string{"E2", "E3"}, f.activeEmployees(t, "B1"))

	left, err := f.store.Waitlist().ListWaiting(ctx, "B1", testDate)
	require.NoError(t, err)
	assert.Empty(t, left)

	require.Len(t, f.publisher.byType(notifier.EventBookingCancelled), 1)
	promoted := f.publisher.byType(notifier.EventBookingPromoted)
	require.Len(t, promoted, 1)
	assert.Equal(t, "E3", promoted[0].EmployeeID)
	assert.Equal(t, 1, promoted[0].Position)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingOperationsTotal.WithLabelValues("promote", metrics.OutcomePromoted)))
}

func TestExecute_PromotionIsFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "E1", "B1")
	f.book(t, "E2", "B1")
	for _, e := range []string{"E3", "E4", "E5"} {
		require.Equal(t, create_booking.OutcomeWaitlisted, f.book(t, e, "B1").Outcome)
	}

	resp, err := f.cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.NoError(t, err)
	assert.Equal(t, "E3", resp.Promoted.EmployeeID)

	resp, err = f.cancel.Execute(ctx, cancelReq("E2", "B1"))
	require.NoError(t, err)
	assert.Equal(t, "E4", resp.Promoted.EmployeeID)

	left, err := f.store.Waitlist().ListWaiting(ctx, "B1", testDate)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "E5", left[0].EmployeeID)
	assert.Equal(t, 3, left[0].Position)

	// новая запись не переиспользует позиции обработанных
	next := f.book(t, "E6", "B1")
	assert.Equal(t, 4, next.Position)
}

func TestExecute_DropsIneligibleEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "E1", "B1")
	f.book(t, "E2", "B1")
	require.Equal(t, create_booking.OutcomeWaitlisted, f.book(t, "E3", "B1").Outcome)
	require.Equal(t, create_booking.OutcomeWaitlisted, f.book(t, "E4", "B1").Outcome)

	// E3 тем временем уехал утренним B2: держать место в B1 ему нельзя
	require.True(t, f.book(t, "E3", "B2").IsConfirmed())

	resp, err := f.cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.NoError(t, err)
	require.Len(t, resp.Dropped, 1)
	assert.Equal(t, "E3", resp.Dropped[0].EmployeeID)
	assert.Equal(t, domain.WaitlistStatusCancelled, resp.Dropped[0].Status)
	require.NotNil(t, resp.Promoted)
	assert.Equal(t, "E4", resp.Promoted.EmployeeID)

	assert.ElementsMatch(t, []string{"E2", "E4"}, f.activeEmployees(t, "B1"))
	assert.Len(t, f.publisher.byType(notifier.EventWaitlistCancelled), 1)
}

// racingBookings добавляет сотруднику бронирование на другом рейсе сразу после того,
// как промоушен прочитал его бронирования, но до вставки
type racingBookings struct {
	*memory.BookingRepository
	employee string
	busID    string
	at       time.Time
	once     sync.Once
}

func (r *racingBookings) ListActiveByEmployeeAndDate(ctx context.Context, employeeID string, date types.Date) ([]*domain.Booking, error) {
	out, err := r.BookingRepository.ListActiveByEmployeeAndDate(ctx, employeeID, date)
	if err != nil || employeeID != r.employee {
		return out, err
	}
	r.once.Do(func() {
		err = r.BookingRepository.Create(ctx, &domain.Booking{
			ID:           "concurrent-" + employeeID,
			EmployeeID:   employeeID,
			BusID:        r.busID,
			ScheduleDate: date,
			Slot:         domain.SlotMorning,
			Status:       domain.BookingStatusActive,
			CreatedAt:    r.at,
		})
	})
	return out, err
}

func TestExecute_DropsEntryBookedElsewhereDuringPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "E1", "B1")
	f.book(t, "E2", "B1")
	require.Equal(t, create_booking.OutcomeWaitlisted, f.book(t, "E3", "B1").Outcome)
	require.Equal(t, create_booking.OutcomeWaitlisted, f.book(t, "E4", "B1").Outcome)

	bookings := &racingBookings{BookingRepository: f.store.Bookings(), employee: "E3", busID: "B2", at: f.clock.Now()}
	cancel := NewUseCase(
		f.store.Buses(), bookings, f.store.Waitlist(),
		capacity.NewValidator(domain.DefaultBookingPolicy()), lock.NewMemoryManager(), time.Second, txmanager.Noop{},
		f.publisher, f.metrics, logger.Nop(),
	).WithTimeProvider(f.clock)

	resp, err := cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeBookingCancelled, resp.Outcome)
	require.Len(t, resp.Dropped, 1)
	assert.Equal(t, "E3", resp.Dropped[0].EmployeeID)
	assert.Equal(t, domain.WaitlistStatusCancelled, resp.Dropped[0].Status)
	require.NotNil(t, resp.Promoted)
	assert.Equal(t, "E4", resp.Promoted.EmployeeID)

	assert.ElementsMatch(t, []string{"E2", "E4"}, f.activeEmployees(t, "B1"))
	assert.Equal(t, []string{"E3"}, f.activeEmployees(t, "B2"))

	left, err := f.store.Waitlist().ListWaiting(ctx, "B1", testDate)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestExecute_DropsExpiredEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "E1", "B1")
	f.book(t, "E2", "B1")

	expired := f.clock.Now().Add(-time.Minute)
	require.NoError(t, f.store.Waitlist().Append(ctx, &domain.WaitlistEntry{
		BusID: "B1", ScheduleDate: testDate, EmployeeID: "E3",
		Status: domain.WaitlistStatusWaiting, ExpiresAt: &expired,
	}))
	require.NoError(t, f.store.Waitlist().Append(ctx, &domain.WaitlistEntry{
		BusID: "B1", ScheduleDate: testDate, EmployeeID: "E4",
		Status: domain.WaitlistStatusWaiting,
	}))

	resp, err := f.cancel.Execute(ctx, cancelReq("E2", "B1"))
	require.NoError(t, err)
	require.Len(t, resp.Dropped, 1)
	assert.Equal(t, "E3", resp.Dropped[0].EmployeeID)
	assert.Equal(t, "E4", resp.Promoted.EmployeeID)
}

func TestExecute_NoPromotionWithoutQueue(t *testing.T) {
	f := newFixture(t)

	f.book(t, "E1", "B1")
	resp, err := f.cancel.Execute(context.Background(), cancelReq("E1", "B1"))
	require.NoError(t, err)
	assert.Nil(t, resp.Promoted)
	assert.Empty(t, f.activeEmployees(t, "B1"))
}

func TestExecute_CancelWaitlistEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "E1", "B1")
	f.book(t, "E2", "B1")
	f.book(t, "E3", "B1")
	f.book(t, "E4", "B1")

	resp, err := f.cancel.Execute(ctx, cancelReq("E3", "B1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaitlistCancelled, resp.Outcome)
	assert.Equal(t, 1, resp.WaitlistEntry.Position)
	assert.Nil(t, resp.Promoted)

	left, err := f.store.Waitlist().ListWaiting(ctx, "B1", testDate)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "E4", left[0].EmployeeID)
	assert.ElementsMatch(t, []string{"E1", "E2"}, f.activeEmployees(t, "B1"))
}

func TestExecute_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.cancel.Execute(ctx, &Request{EmployeeID: "E1", Date: testDate})
	require.ErrorIs(t, err, ErrInvalidInput)

	f.book(t, "E1", "B1")
	_, err = f.cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.NoError(t, err)
	_, err = f.cancel.Execute(ctx, cancelReq("E1", "B1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExecute_ConcurrentCancelAndBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "E1", "B1")
	f.book(t, "E2", "B1")
	f.book(t, "E3", "B1")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.cancel.Execute(ctx, cancelReq("E1", "B1"))
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := f.create.Execute(ctx, &create_booking.Request{EmployeeID: "E4", BusID: "B1", Date: testDate})
		assert.NoError(t, err)
	}()
	wg.Wait()

	active := f.activeEmployees(t, "B1")
	assert.Len(t, active, 2)
	assert.Contains(t, active, "E2")
	// E3 стоял первым в очереди и получает освободившееся место при любом порядке
	assert.Contains(t, active, "E3")
}
