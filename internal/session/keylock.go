package session

import "sync"

// KeyLock serializes turns on the same session key. Concurrent turns for
// one key racing on load/mutate/save would corrupt turn counters and the
// done latch, so the coordinator holds the key's lock for the whole turn.
// Entries are reference counted and removed once the last holder releases.
type KeyLock struct {
	mu      sync.Mutex
	entries map[Key]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock creates an empty KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{entries: make(map[Key]*keyLockEntry)}
}

// Lock blocks until the key's lock is held and returns the release func.
func (l *KeyLock) Lock(key Key) func() {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyLockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
