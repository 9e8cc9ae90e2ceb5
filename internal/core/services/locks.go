package services

import "sync"

// projectLocks serialises mutating operations per project so a reset can
// never interleave with an in-flight ingestion.
type projectLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[int64]*sync.Mutex)}
}

// get returns the mutex for a project, creating it on first use.
func (p *projectLocks) get(projectID int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.locks[projectID]; ok {
		return l
	}
	l := &sync.Mutex{}
	p.locks[projectID] = l
	return l
}

// tryLock attempts to take a project's lock without blocking.
func (p *projectLocks) tryLock(projectID int64) bool {
	return p.get(projectID).TryLock()
}
