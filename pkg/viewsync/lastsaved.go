package viewsync

import "sync"

// LastSaved remembers which view last saved each path.
type LastSaved struct {
	mu      sync.RWMutex
	records map[string]ViewID
}

func NewLastSaved() *LastSaved {
	return &LastSaved{records: map[string]ViewID{}}
}

func (l *LastSaved) Set(path string, view ViewID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.records == nil {
		l.records = map[string]ViewID{}
	}
	l.records[path] = view
}

func (l *LastSaved) Get(path string) (ViewID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	view, ok := l.records[path]
	return view, ok
}

// Forget drops the record for path, usually when its last view closes.
func (l *LastSaved) Forget(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, path)
}

// Rename moves the record when the host renames a file.
func (l *LastSaved) Rename(from, to string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if view, ok := l.records[from]; ok {
		delete(l.records, from)
		l.records[to] = view
	}
}
