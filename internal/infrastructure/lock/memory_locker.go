package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stockledger/backend/internal/domain/shared"
)

// MemoryLocker serializes holders of the same key within one process.
// Each key is a one-slot channel; entries are dropped once nobody holds or
// waits for them.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	timeout time.Duration
}

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates a locker whose Acquire waits at most timeout for
// the whole key set. A non-positive timeout waits until ctx is done.
func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[string]*memoryEntry),
		timeout: timeout,
	}
}

// Acquire implements shared.KeyedLocker
func (l *MemoryLocker) Acquire(ctx context.Context, keys ...string) (context.Context, func(), error) {
	pending := pendingKeys(ctx, keys)
	if len(pending) == 0 {
		return ctx, noopRelease, nil
	}

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	acquired := make([]string, 0, len(pending))
	for _, key := range pending {
		if err := l.lock(waitCtx, key); err != nil {
			l.unlockAll(acquired)
			if ctx.Err() != nil {
				return ctx, noopRelease, ctx.Err()
			}
			return ctx, noopRelease, fmt.Errorf("%w: %s", shared.ErrLockTimeout, key)
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	release := func() {
		once.Do(func() { l.unlockAll(acquired) })
	}
	return withHeldKeys(ctx, acquired), release, nil
}

func (l *MemoryLocker) lock(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key)
		return ctx.Err()
	}
}

func (l *MemoryLocker) unlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[keys[i]]
		l.mu.Unlock()
		<-e.sem
		l.unref(keys[i])
	}
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// keyCount returns the number of keys currently held or awaited
func (l *MemoryLocker) keyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

var _ shared.KeyedLocker = (*MemoryLocker)(nil)
