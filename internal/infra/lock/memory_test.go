package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryManager_MutualExclusion(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemoryManager()
	ctx := context.Background()

	var (
		holders    atomic.Int32
		maxHolders atomic.Int32
		counter    int
		wg         sync.WaitGroup
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := m.Acquire(ctx, "B1:2025-10-10", 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			n := holders.Add(1)
			for {
				cur := maxHolders.Load()
				if n <= cur || maxHolders.CompareAndSwap(cur, n) {
					break
				}
			}
			counter++
			time.Sleep(time.Millisecond)
			holders.Add(-1)
			assert.NoError(t, l.Release(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, int32(1), maxHolders.Load())
	assert.Zero(t, m.size(), "entries are dropped once nobody references the key")
}

func TestMemoryManager_BusyAfterTimeout(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	held, err := m.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	start := time.Now()
	_, err = m.Acquire(ctx, "k", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrBusy)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	_, err = m.Acquire(ctx, "k", 0)
	require.ErrorIs(t, err, ErrBusy)

	other, err := m.Acquire(ctx, "other", 0)
	require.NoError(t, err, "different keys do not contend")
	require.NoError(t, other.Release(ctx))

	require.NoError(t, held.Release(ctx))
	again, err := m.Acquire(ctx, "k", 0)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestMemoryManager_ReleaseTwice(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	l, err := m.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "k", l.Key())

	require.NoError(t, l.Release(ctx))
	require.ErrorIs(t, l.Release(ctx), ErrNotHeld)

	// второй Release не отпустил чужую блокировку
	next, err := m.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	_, err = m.Acquire(ctx, "k", 0)
	require.ErrorIs(t, err, ErrBusy)
	require.NoError(t, next.Release(ctx))
}

func TestMemoryManager_CallerCancellation(t *testing.T) {
	m := NewMemoryManager()

	held, err := m.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = m.Acquire(ctx, "k", 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrBusy)
}
