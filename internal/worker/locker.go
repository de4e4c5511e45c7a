package worker

import "sync"

// Locker tracks reconciliations being processed by this process, so two
// workers in the same pool never pick up the same entity. Cross-process
// exclusion is the store's conditional status update.
type Locker struct {
	mu         sync.Mutex
	processing map[uint]bool
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{processing: make(map[uint]bool)}
}

// TryAcquire claims id. It returns false when another worker holds it.
func (l *Locker) TryAcquire(id uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.processing[id] {
		return false
	}
	l.processing[id] = true
	return true
}

// Release frees id for future runs.
func (l *Locker) Release(id uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.processing, id)
}
