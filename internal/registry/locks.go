package registry

import "sync"

// jobLocks serializes mutations to a single job's state. Operations on
// different jobs never contend. Entries are never removed; jobs have
// unbounded lifetime and the per-job cost is one mutex.
type jobLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newJobLocks() *jobLocks {
	return &jobLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// forJob returns the mutex guarding the given job identifier
func (l *jobLocks) forJob(jobID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[jobID] = lock
	}
	return lock
}
