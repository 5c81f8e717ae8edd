// Package keyedmutex serializes work per key. The bot uses it to keep
// concurrent updates from the same user ordered without blocking other users.
package keyedmutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex hands out one mutex per key. Entries are reclaimed once the
// last holder unlocks, so idle keys cost nothing.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[int64]*entry)}
}

// Lock blocks until the mutex for key is held.
func (k *KeyedMutex) Lock(key int64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Calling Unlock without a matching Lock
// panics, same as sync.Mutex.
func (k *KeyedMutex) Unlock(key int64) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keyedmutex: unlock of unlocked key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Do runs fn while holding the mutex for key.
func (k *KeyedMutex) Do(key int64, fn func() error) error {
	k.Lock(key)
	defer k.Unlock(key)
	return fn()
}
