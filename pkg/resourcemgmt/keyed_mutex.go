package resourcemgmt

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var heldKeys = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "keyed_mutex_keys",
	Help: "Keys currently held or awaited in the in-process keyed mutex",
})

type keyEntry struct {
	slot chan struct{}
	refs int
}

// KeyedMutex serializes callers per key inside one process.
// Entries are dropped once no caller holds or waits for the key.
type KeyedMutex struct {
	keys map[string]*keyEntry
	mu   sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*keyEntry)}
}

// Lock blocks until key is free or ctx is done
func (km *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	km.mu.Lock()
	e, ok := km.keys[key]
	if !ok {
		e = &keyEntry{slot: make(chan struct{}, 1)}
		km.keys[key] = e
		heldKeys.Inc()
	}
	e.refs++
	km.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		km.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			km.release(key, e)
		})
	}, nil
}

func (km *KeyedMutex) release(key string, e *keyEntry) {
	km.mu.Lock()
	defer km.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(km.keys, key)
		heldKeys.Dec()
	}
}

// Len returns the number of keys currently held or awaited
func (km *KeyedMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.keys)
}
