// Package keylock provides per-key mutexes so mutations on the same entity id
// serialize without a global lock. Sessions and workflows are independent of
// each other; only same-id operations must not interleave.
package keylock

import "sync"

// KeyLock hands out one mutex per key. Locks are never removed; the key space
// (session and workflow ids) is small relative to process lifetime.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyLock) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key. Panics if Lock was not called first,
// matching sync.Mutex semantics.
func (k *KeyLock) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyLock) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
