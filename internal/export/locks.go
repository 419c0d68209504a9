// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import "sync"

// pathLocks hands out one mutex per destination path. Entries are dropped
// once no goroutine holds or waits on them.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{m: make(map[string]*pathLock)}
}

// lock blocks until path is free and returns the matching unlock func.
func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	l, ok := p.m[path]
	if !ok {
		l = &pathLock{}
		p.m[path] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.m, path)
		}
		p.mu.Unlock()
	}
}
