package ingest

import "sync"

// pathLocks serializes work per file path. Entries are reference counted
// and removed once the last holder releases, so the map does not grow with
// the number of distinct paths ever seen.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

func (p *pathLocks) acquire(path string) *pathLock {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &pathLock{}
		p.locks[path] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return l
}

func (p *pathLocks) release(path string, l *pathLock) {
	l.mu.Unlock()

	p.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, path)
	}
	p.mu.Unlock()
}
