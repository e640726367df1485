package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/m04kA/SMC-ShuttleService/internal/domain"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/bus"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-ShuttleService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-ShuttleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ShuttleService/pkg/metrics"
	"github.com/m04kA/SMC-ShuttleService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-ShuttleService/pkg/txmanager"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sqliteRepos(t *testing.T) repos {
	t.Helper()
	db := storagetest.OpenSQLite(t)
	buses := bus.NewRepository(db, psqlbuilder.SQLite)
	seedBuses(t, buses)
	return repos{
		buses:    buses,
		bookings: booking.NewRepository(db, psqlbuilder.SQLite),
		waitlist: waitlist.NewRepository(db, psqlbuilder.SQLite),
		tx:       txmanager.NewTransactionManager(db),
	}
}

func TestExecute_Confirmed(t *testing.T) {
	f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())

	resp, err := f.uc.Execute(context.Background(), req("E1", "B1"))
	require.NoError(t, err)
	require.True(t, resp.IsConfirmed())
	assert.NotEmpty(t, resp.Booking.ID)
	assert.Equal(t, "E1", resp.Booking.EmployeeID)
	assert.Equal(t, domain.SlotMorning, resp.Booking.Slot)
	assert.Equal(t, domain.BookingStatusActive, resp.Booking.Status)

	assert.Equal(t, []notifier.EventType{notifier.EventBookingConfirmed}, f.publisher.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingOperationsTotal.WithLabelValues("create", metrics.OutcomeConfirmed)))
}

func TestExecute_WaitlistedWhenFull(t *testing.T) {
	f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
	ctx := context.Background()

	for _, e := range []string{"E1", "E2"} {
		resp, err := f.uc.Execute(ctx, req(e, "B1"))
		require.NoError(t, err)
		require.True(t, resp.IsConfirmed())
	}

	resp, err := f.uc.Execute(ctx, req("E3", "B1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaitlisted, resp.Outcome)
	assert.Equal(t, 1, resp.Position)
	require.NotNil(t, resp.WaitlistEntry.ExpiresAt)
	assert.Equal(t, time.Date(2025, time.October, 10, 7, 30, 0, 0, time.UTC), *resp.WaitlistEntry.ExpiresAt)

	// повторный запрос не создает вторую запись
	again, err := f.uc.Execute(ctx, req("E3", "B1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaitlisted, again.Outcome)
	assert.Equal(t, 1, again.Position)
	assert.Equal(t, resp.WaitlistEntry.ID, again.WaitlistEntry.ID)

	next, err := f.uc.Execute(ctx, req("E4", "B1"))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Position)
}

func TestExecute_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
		_, err := f.uc.Execute(ctx, &Request{BusID: "B1", Date: testDate})
		require.ErrorIs(t, err, ErrInvalidInput)
		_, err = f.uc.Execute(ctx, &Request{EmployeeID: "E1", BusID: "B1"})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown bus", func(t *testing.T) {
		f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
		_, err := f.uc.Execute(ctx, req("E1", "NOPE"))
		require.ErrorIs(t, err, ErrBusNotFound)
	})

	t.Run("inactive bus", func(t *testing.T) {
		f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
		_, err := f.uc.Execute(ctx, req("E1", "OFF"))
		require.ErrorIs(t, err, ErrBusNotFound)
	})

	t.Run("cutoff passed", func(t *testing.T) {
		f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
		f.clock.Set(time.Date(2025, time.October, 10, 7, 20, 0, 0, time.UTC))
		_, err := f.uc.Execute(ctx, req("E1", "B1"))
		require.ErrorIs(t, err, ErrCutoffPassed)
	})

	t.Run("slot conflict", func(t *testing.T) {
		f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
		_, err := f.uc.Execute(ctx, req("E1", "B1"))
		require.NoError(t, err)
		_, err = f.uc.Execute(ctx, req("E1", "B2"))
		require.ErrorIs(t, err, ErrSlotConflict)
		assert.Contains(t, err.Error(), "you already have a morning booking for this date")
	})

	t.Run("daily limit", func(t *testing.T) {
		policy := domain.DefaultBookingPolicy()
		policy.MaxBookingsPerDay = 1
		f := newFixture(t, memoryRepos(t), policy)
		_, err := f.uc.Execute(ctx, req("E1", "B1"))
		require.NoError(t, err)
		_, err = f.uc.Execute(ctx, req("E1", "B3"))
		require.ErrorIs(t, err, ErrDailyLimitExceeded)
	})

	t.Run("maintenance mode", func(t *testing.T) {
		policy := domain.DefaultBookingPolicy()
		policy.MaintenanceMode = true
		f := newFixture(t, memoryRepos(t), policy)
		_, err := f.uc.Execute(ctx, req("E1", "B1"))
		require.ErrorIs(t, err, ErrMaintenanceMode)
	})
}

func TestExecute_BusyWhenLockIsHeld(t *testing.T) {
	f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
	f.uc.lockTimeout = 30 * time.Millisecond
	ctx := context.Background()

	held, err := f.locker.Acquire(ctx, domain.ResourceKey("B1", testDate), time.Second)
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, req("E1", "B1"))
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingOperationsTotal.WithLabelValues("create", metrics.OutcomeBusy)))

	require.NoError(t, held.Release(ctx))

	// блокировка освобождается и после отказа, и после успеха
	_, err = f.uc.Execute(ctx, req("E1", "NOPE"))
	require.ErrorIs(t, err, ErrBusNotFound)
	_, err = f.uc.Execute(ctx, req("E1", "B1"))
	require.NoError(t, err)
	l, err := f.locker.Acquire(ctx, domain.ResourceKey("B1", testDate), 0)
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx))
}

func TestExecute_PublishFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
	f.publisher.err = errors.New("broker down")

	resp, err := f.uc.Execute(context.Background(), req("E1", "B1"))
	require.NoError(t, err)
	assert.True(t, resp.IsConfirmed())
}

func capacityInvariant(t *testing.T, r repos, callers int) {
	f := newFixture(t, r, domain.DefaultBookingPolicy())
	f.uc.lockTimeout = 10 * time.Second

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		positions []int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.uc.Execute(context.Background(), req(fmt.Sprintf("E%d", i), "B1"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if resp.IsConfirmed() {
				confirmed++
			} else {
				positions = append(positions, resp.Position)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, confirmed)
	sort.Ints(positions)
	want := make([]int, 0, callers-2)
	for p := 1; p <= callers-2; p++ {
		want = append(want, p)
	}
	assert.Equal(t, want, positions)

	active, err := r.bookings.ListActiveByBusAndDate(context.Background(), "B1", testDate)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestExecute_CapacityInvariant_Memory(t *testing.T) {
	capacityInvariant(t, memoryRepos(t), 30)
}

func TestExecute_CapacityInvariant_SQLite(t *testing.T) {
	capacityInvariant(t, sqliteRepos(t), 12)
}

func TestExecute_SlotExclusivity(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, busID := range []string{"B1", "B2"} {
			wg.Add(1)
			go func(i int, busID string) {
				defer wg.Done()
				_, results[i] = f.uc.Execute(context.Background(), req("E1", busID))
			}(i, busID)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, ErrSlotConflict)
		}
		require.Equal(t, 1, succeeded, "round %d", round)
	}
}

func TestExecuteHeld_DoesNotTakeLockOrPublish(t *testing.T) {
	f := newFixture(t, memoryRepos(t), domain.DefaultBookingPolicy())
	ctx := context.Background()

	held, err := f.locker.Acquire(ctx, domain.ResourceKey("B1", testDate), time.Second)
	require.NoError(t, err)
	defer held.Release(ctx)

	resp, err := f.uc.ExecuteHeld(ctx, req("E1", "B1"))
	require.NoError(t, err)
	assert.True(t, resp.IsConfirmed())
	assert.Empty(t, f.publisher.types())

	f.uc.Notify(ctx, resp)
	assert.Equal(t, []notifier.EventType{notifier.EventBookingConfirmed}, f.publisher.types())
}
