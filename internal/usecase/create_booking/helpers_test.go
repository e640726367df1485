package create_booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/lock"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ShuttleService/internal/service/capacity"
	"github.com/m04kA/SMC-ShuttleService/pkg/logger"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/txmanager"
	"github.com/m04kA/SMC-ShuttleService/pkg/types"
)

var testDate = types.NewDate(2025, time.October, 10)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, time.October, 9, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifier.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e notifier.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []notifier.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifier.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type repos struct {
	buses    BusRepository
	bookings BookingRepository
	waitlist WaitlistRepository
	tx       TransactionManager
}

type busSeeder interface {
	Upsert(ctx context.Context, b *domain.Bus) error
}

func seedBuses(t *testing.T, seeder busSeeder) {
	t.Helper()
	now := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
	for _, b := range []*domain.Bus{
		{ID: "B1", Route: "Office - Metro", Capacity: 2, DepartureTime: "07:30", Slot: domain.SlotMorning, Active: true},
		{ID: "B2", Route: "Office - Station", Capacity: 2, DepartureTime: "08:00", Slot: domain.SlotMorning, Active: true},
		{ID: "B3", Route: "Metro - Office", Capacity: 1, DepartureTime: "18:00", Slot: domain.SlotEvening, Active: true},
		{ID: "OFF", Route: "Retired", Capacity: 10, DepartureTime: "09:00", Slot: domain.SlotMorning, Active: false},
	} {
		b.CreatedAt, b.UpdatedAt = now, now
		require.NoError(t, seeder.Upsert(context.Background(), b))
	}
}

func memoryRepos(t *testing.T) repos {
	t.Helper()
	store := memory.NewStore()
	seedBuses(t, store.Buses())
	return repos{buses: store.Buses(), bookings: store.Bookings(), waitlist: store.Waitlist(), tx: txmanager.Noop{}}
}

type fixture struct {
	uc        *UseCase
	clock     *fixedClock
	publisher *recordingPublisher
	locker    *lock.MemoryManager
	metrics   *metrics.Metrics
	repos     repos
}

func newFixture(t *testing.T, r repos, policy domain.BookingPolicy) *fixture {
	t.Helper()

	f := &fixture{
		clock:     newClock(),
		publisher: &recordingPublisher{},
		locker:    lock.NewMemoryManager(),
		metrics:   metrics.New("shuttle-test", prometheus.NewRegistry()),
		repos:     r,
	}
	f.uc = NewUseCase(
		r.buses, r.bookings, r.waitlist,
		capacity.NewValidator(policy),
		f.locker, time.Second,
		r.tx,
		f.publisher,
		f.metrics,
		logger.Nop(),
	).WithTimeProvider(f.clock)

	return f
}

func req(employee, bus string) *Request {
	return &Request{EmployeeID: employee, BusID: bus, Date: testDate}
}
