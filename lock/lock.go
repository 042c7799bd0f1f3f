// Package lock serialises writers of the same table.
//
// SaveItemObjects rewrites a whole partition table. Two concurrent saves of
// items in the same partition would otherwise race and one of them would be
// lost, so writers take a Locker lease on the table before reading it.
// Readers never lock: table files are replaced with atomic puts.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotHeld is returned when releasing a lock that is no longer held.
var ErrNotHeld = errors.New("lock not held")

// Unlock releases a lock. It must be called exactly once.
type Unlock func() error

// Locker grants exclusive access to named keys.
type Locker interface {
	// Lock blocks until key is held or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// MemoryLocker is an in-process Locker of keyed mutexes. Entries are
// dropped once no goroutine holds or waits for them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker returns an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*entry)}
}

// Lock acquires key.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		err := ErrNotHeld
		once.Do(func() {
			<-e.ch
			l.release(key, e)
			err = nil
		})
		return err
	}, nil
}

func (l *MemoryLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or waited for.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
