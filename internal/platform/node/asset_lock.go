package node

import (
	"sync"
)

// AssetLock manages one lock per asset id. Settlement relies on calls
// against the same asset being serialized; this re-provides that guarantee
// in-process.
type AssetLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAssetLock returns a new AssetLock.
func NewAssetLock() *AssetLock {
	return &AssetLock{
		locks: map[string]*sync.Mutex{},
	}
}

// Get returns a Mutex for a given asset id. It is up to the caller to Lock
// and Unlock the Mutex.
func (a *AssetLock) Get(assetID string) *sync.Mutex {
	// top level mutex ensuring only one process accesses the map of locks.
	a.mu.Lock()
	defer a.mu.Unlock()

	mu, ok := a.locks[assetID]
	if ok {
		return mu
	}

	mu = &sync.Mutex{}
	a.locks[assetID] = mu

	return mu
}
