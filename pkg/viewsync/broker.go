package viewsync

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Broker keeps listeners per path and fans notifications out to them.
type Broker struct {
	mu        sync.Mutex
	next      uint64
	listeners map[string]map[uint64]*Subscription
}

func NewBroker() *Broker {
	return &Broker{listeners: map[string]map[uint64]*Subscription{}}
}

// Subscription is one registered listener. Close it when the view closes.
type Subscription struct {
	broker   *Broker
	id       uint64
	path     string
	view     ViewID
	listener Listener
	once     sync.Once
}

// Path returns the subscribed path.
func (s *Subscription) Path() string {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	return s.path
}

// View returns the subscribing view.
func (s *Subscription) View() ViewID { return s.view }

// Close unregisters the listener. Calling it again is a no-op.
func (s *Subscription) Close() {
	if s == nil || s.broker == nil {
		return
	}
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Subscribe registers listener for notifications on path. Notifications
// originating from view are never delivered to it.
func (b *Broker) Subscribe(path string, view ViewID, listener Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = map[string]map[uint64]*Subscription{}
	}
	b.next++
	sub := &Subscription{broker: b, id: b.next, path: path, view: view, listener: listener}
	if b.listeners[path] == nil {
		b.listeners[path] = map[uint64]*Subscription{}
	}
	b.listeners[path][sub.id] = sub
	return sub
}

// Count returns the number of listeners on path.
func (b *Broker) Count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[path])
}

// Rename moves every listener registered on from to to.
func (b *Broker) Rename(from, to string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.listeners[from]
	if !ok {
		return
	}
	delete(b.listeners, from)
	if b.listeners[to] == nil {
		b.listeners[to] = map[uint64]*Subscription{}
	}
	for id, sub := range subs {
		sub.path = to
		b.listeners[to][id] = sub
	}
}

// Publish delivers n to every listener on n.Path except the originating view,
// in subscription order. Each listener gets its own copy of the state. It
// returns the number of listeners that applied the notification and the
// joined ListenerErrors of those that did not.
func (b *Broker) Publish(n ChangeNotification) (int, error) {
	targets := b.snapshot(n.Path, n.OriginatingView)

	delivered := 0
	var errs []error
	for _, sub := range targets {
		if err := deliver(sub, n); err != nil {
			errs = append(errs, &ListenerError{Path: n.Path, View: sub.view, Err: err})
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

func (b *Broker) snapshot(path string, origin ViewID) []*Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[path]
	out := make([]*Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.view == origin || sub.listener == nil {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func deliver(sub *Subscription, n ChangeNotification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	n.State = n.State.Clone()
	return sub.listener(n)
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.listeners[sub.path]
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(b.listeners, sub.path)
	}
}

func (b *Broker) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = map[string]map[uint64]*Subscription{}
}
