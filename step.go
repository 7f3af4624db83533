package loom

import "fmt"

// Step transforms one shape into the next. Build steps with NewStep so the
// boundary is derived from the shape types rather than declared by hand.
type Step struct {
	Name  string
	From  SchemaVersion
	To    SchemaVersion
	apply func(VersionedState) (VersionedState, error)
}

// NewStep wraps a typed transformer. From and To must be value types from
// this package's closed shape set.
func NewStep[From, To VersionedState](name string, fn func(From) (To, error)) Step {
	var from From
	var to To
	step := Step{
		Name: name,
		From: from.SchemaVersion(),
		To:   to.SchemaVersion(),
	}
	if name == "" {
		step.Name = fmt.Sprintf("%s->%s", step.From, step.To)
	}
	if fn == nil {
		return step
	}
	step.apply = func(in VersionedState) (VersionedState, error) {
		typed, ok := in.(From)
		if !ok {
			return nil, fmt.Errorf("step %s expects %T, got %T", step.Name, from, in)
		}
		out, err := fn(typed)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return step
}

// Apply runs the step on in. A panic inside the transformer is returned as an
// error.
func (s Step) Apply(in VersionedState) (out VersionedState, err error) {
	if s.apply == nil {
		return nil, fmt.Errorf("step %s has no transformer", s.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("step %s panicked: %v", s.Name, r)
		}
	}()
	return s.apply(in)
}
