// Package viewsync keeps several in-process views of the same file in step.
// When one view saves, every other view subscribed to that path receives the
// new state synchronously; the saving view never hears its own save.
package viewsync

import (
	"errors"
	"fmt"

	loom "github.com/goliatone/go-loom"
)

// ViewID identifies one open view.
type ViewID string

// ChangeNotification is delivered to sibling views after a save.
type ChangeNotification struct {
	Path            string
	OriginatingView ViewID
	State           loom.LoomState
}

// Listener applies a notification to one view.
type Listener func(ChangeNotification) error

// ErrListenerApplyFailed matches every ListenerError.
var ErrListenerApplyFailed = errors.New("viewsync: listener apply failed")

// ListenerError reports a listener that failed or panicked while applying a
// notification. Other listeners still ran.
type ListenerError struct {
	Path string
	View ViewID
	Err  error
}

func (e *ListenerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("viewsync: listener for view %s on %s: %v", e.View, e.Path, e.Err)
}

func (e *ListenerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ListenerError) Is(target error) bool {
	return target == ErrListenerApplyFailed
}
