package logbook

import (
	"strconv"
	"sync"
)

// runLocks serializes writers per run number inside this process.
// Entries are dropped once no goroutine holds or waits for them.
type runLocks struct {
	mu    sync.Mutex
	locks map[int64]*runLock
}

type runLock struct {
	mu   sync.Mutex
	refs int
}

func newRunLocks() *runLocks {
	return &runLocks{locks: make(map[int64]*runLock)}
}

// Lock blocks until the run is free and returns the matching unlock.
func (l *runLocks) Lock(runNumber int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[runNumber]
	if !ok {
		entry = &runLock{}
		l.locks[runNumber] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, runNumber)
		}
		l.mu.Unlock()
	}
}

func (l *runLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
