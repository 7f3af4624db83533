package view

import "sync"

// Scope collects release funcs for resources acquired while a view is open
// and runs them, newest first, exactly once.
type Scope struct {
	mu       sync.Mutex
	releases []func()
	closed   bool
}

// Acquire registers release. On a closed scope release runs immediately.
func (s *Scope) Acquire(release func()) {
	if release == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		release()
		return
	}
	s.releases = append(s.releases, release)
	s.mu.Unlock()
}

// Close runs every release func. Later calls do nothing.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	releases := s.releases
	s.releases = nil
	s.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}

// Len returns the number of pending release funcs.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.releases)
}
