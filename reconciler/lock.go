package reconciler

import (
	"context"
	"sync"
)

// Locker serializes scans of the same code across processes. The in-process
// keyed lock is always taken first; a Locker is only needed when several
// instances share one store.
type Locker interface {
	Lock(ctx context.Context, code string) (unlock func(), err error)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) Lock(code string) func() {
	k.mu.Lock()
	e, ok := k.locks[code]
	if !ok {
		e = &keyedEntry{}
		k.locks[code] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, code)
		}
		k.mu.Unlock()
	}
}
