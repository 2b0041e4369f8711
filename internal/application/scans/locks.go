package scans

import (
	"sync"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

// scanLocks hands out one mutex per scan id and drops it once nobody holds it.
// The zero value is ready to use.
type scanLocks struct {
	mu sync.Mutex
	m  map[domain.ScanID]*scanLock
}

type scanLock struct {
	mu   sync.Mutex
	refs int
}

func (l *scanLocks) lock(id domain.ScanID) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[domain.ScanID]*scanLock)
	}
	e, ok := l.m[id]
	if !ok {
		e = &scanLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// held reports how many ids currently have a lock entry (tests only).
func (l *scanLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
