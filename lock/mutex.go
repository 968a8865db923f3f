package lock

import (
	"context"
	"sync"
)

// Mutex is an in-process Locker with one lock per key. Waiting for a lock is abandoned when the
// context is cancelled.
type Mutex struct {
	sync.Mutex
	keys map[string]chan struct{}
}

func NewMutex() *Mutex {
	return &Mutex{
		keys: map[string]chan struct{}{},
	}
}

func (m *Mutex) Lock(ctx context.Context, key string) (func(), error) {
	ch := m.get(key)

	select {
	case ch <- struct{}{}:
		var once sync.Once

		return func() { once.Do(func() { <-ch }) }, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Mutex) get(key string) chan struct{} {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	ch, ok := m.keys[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.keys[key] = ch
	}

	return ch
}
