package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// MemoryManager блокировки внутри одного процесса
// На каждый ключ заводится семафор веса 1; запись удаляется, когда на ключ никто не ссылается
type MemoryManager struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewMemoryManager создает менеджер блокировок в памяти
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{entries: make(map[string]*memoryEntry)}
}

// Acquire берет блокировку ключа, ожидая не дольше timeout
func (m *MemoryManager) Acquire(ctx context.Context, key string, timeout time.Duration) (Lock, error) {
	entry := m.ref(key)

	if err := m.acquire(ctx, entry, key, timeout); err != nil {
		m.unref(key, entry)
		return nil, err
	}

	return &memoryLock{manager: m, key: key, entry: entry}, nil
}

func (m *MemoryManager) acquire(ctx context.Context, entry *memoryEntry, key string, timeout time.Duration) error {
	if timeout <= 0 {
		if !entry.sem.TryAcquire(1) {
			return fmt.Errorf("%w: %s", ErrBusy, key)
		}
		return nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := entry.sem.Acquire(acquireCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s", ErrBusy, key)
	}
	return nil
}

func (m *MemoryManager) ref(key string) *memoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		entry = &memoryEntry{sem: semaphore.NewWeighted(1)}
		m.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (m *MemoryManager) unref(key string, entry *memoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(m.entries, key)
	}
}

// size количество ключей, на которые кто-то ссылается
func (m *MemoryManager) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type memoryLock struct {
	manager  *MemoryManager
	key      string
	entry    *memoryEntry
	released atomic.Bool
}

func (l *memoryLock) Key() string { return l.key }

func (l *memoryLock) Release(_ context.Context) error {
	if !l.released.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	l.entry.sem.Release(1)
	l.manager.unref(l.key, l.entry)
	return nil
}
