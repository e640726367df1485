package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	acquires []string
	holds    int
}

func (o *recordingObserver) ObserveLockAcquire(backend, result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.acquires = append(o.acquires, backend+":"+result)
}

func (o *recordingObserver) ObserveLockHold(string, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.holds++
}

func TestInstrument(t *testing.T) {
	obs := &recordingObserver{}
	m := Instrument(NewMemoryManager(), "memory", obs)
	ctx := context.Background()

	l, err := m.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "k", l.Key())

	_, err = m.Acquire(ctx, "k", 0)
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, l.Release(ctx))

	assert.Equal(t, []string{"memory:acquired", "memory:busy"}, obs.acquires)
	assert.Equal(t, 1, obs.holds)
}

func TestInstrument_NilObserver(t *testing.T) {
	base := NewMemoryManager()
	assert.Same(t, base, Instrument(base, "memory", nil))
}
