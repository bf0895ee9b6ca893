package usecase_poll

import "sync"

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serialises work per poll id and forgets idle keys.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*refMutex),
	}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
