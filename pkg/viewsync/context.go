package viewsync

import (
	"errors"
	"sync"

	loom "github.com/goliatone/go-loom"
)

// Option configures a Context.
type Option func(*Context)

// WithLogger attaches a sync logger.
func WithLogger(logger Logger) Option {
	return func(c *Context) {
		if logger == nil {
			c.logger = noopLogger{}
			return
		}
		c.logger = logger
	}
}

// Context owns the last-saved record and the broker shared by every view
// of one host. Create one per host and pass it to each view.
type Context struct {
	lastSaved *LastSaved
	broker    *Broker
	logger    Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewContext(opts ...Option) *Context {
	c := &Context{
		lastSaved: NewLastSaved(),
		broker:    NewBroker(),
		logger:    noopLogger{},
		inflight:  map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// LastSaved returns the last-saved record.
func (c *Context) LastSaved() *LastSaved {
	return c.lastSaved
}

// Broker returns the listener broker.
func (c *Context) Broker() *Broker {
	return c.broker
}

// Subscribe registers listener for path on behalf of view.
func (c *Context) Subscribe(path string, view ViewID, listener Listener) *Subscription {
	return c.broker.Subscribe(path, view, listener)
}

// Saved records view as the last saver of path and broadcasts state to every
// other view of path. Listener failures are logged and returned joined; the
// save itself stands. A Saved call for a path that is already broadcasting,
// such as a listener saving in response, is dropped.
func (c *Context) Saved(path string, view ViewID, state loom.LoomState) error {
	if !c.begin(path) {
		c.logger.LogSync(SyncLogEvent{Kind: EventEchoDropped, Path: path, Origin: view})
		return nil
	}
	defer c.end(path)

	c.lastSaved.Set(path, view)

	delivered, err := c.broker.Publish(ChangeNotification{Path: path, OriginatingView: view, State: state})
	for _, failure := range listenerErrors(err) {
		c.logger.LogSync(SyncLogEvent{Kind: EventListenerFailed, Path: path, Origin: view, Target: failure.View, Err: failure.Err})
	}
	c.logger.LogSync(SyncLogEvent{Kind: EventBroadcast, Path: path, Origin: view, Delivered: delivered, Err: err})
	return err
}

// Rename moves the record and listeners of from to to.
func (c *Context) Rename(from, to string) {
	c.lastSaved.Rename(from, to)
	c.broker.Rename(from, to)
}

// Close drops every listener. Views closed afterwards may still Close their
// subscriptions safely.
func (c *Context) Close() {
	c.broker.clear()
}

func (c *Context) begin(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[path]; busy {
		return false
	}
	c.inflight[path] = struct{}{}
	return true
}

func (c *Context) end(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, path)
}

func listenerErrors(err error) []*ListenerError {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var single *ListenerError
		if errors.As(err, &single) {
			return []*ListenerError{single}
		}
		return nil
	}
	var out []*ListenerError
	for _, inner := range joined.Unwrap() {
		var listenerErr *ListenerError
		if errors.As(inner, &listenerErr) {
			out = append(out, listenerErr)
		}
	}
	return out
}
