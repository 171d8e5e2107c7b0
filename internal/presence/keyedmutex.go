package presence

import "sync"

// keyedMutex hands out a *sync.Mutex per string key, so mutations of
// distinct Presence records never contend, while mutations of the same
// record are serialized. Grounded on the sync.RWMutex-guarded maps in the
// teacher's notifications.ConnectionManager and notifications.Hub.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m
}
