package storage

import (
	"path/filepath"
	"sync"
)

var (
	rootLocksMu sync.Mutex
	rootLocks   = make(map[string]*sync.Mutex)
)

// LockFor returns the process-wide mutex guarding the index stored at root.
// Every repository opened on the same root shares one mutex, so the
// load-modify-store sequence of the index never interleaves within a process.
func LockFor(root string) *sync.Mutex {
	key := root
	if abs, err := filepath.Abs(root); err == nil {
		key = filepath.Clean(abs)
	}

	rootLocksMu.Lock()
	defer rootLocksMu.Unlock()

	mu, ok := rootLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		rootLocks[key] = mu
	}
	return mu
}
