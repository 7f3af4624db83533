package loom

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-loom/internal/hydrate"
)

// Shape pairs a schema ordinal with the release that introduced it and a
// decoder for payloads written in that shape.
type Shape struct {
	Version SchemaVersion
	Release string
	decode  func(hydrate.Context, map[string]any) (VersionedState, error)
}

// Normalizer rewrites a private copy of a raw payload before it is decoded
// as a shape. It is the place for quirks of files written by older releases.
type Normalizer func(release string, raw map[string]any) (map[string]any, error)

// NewShape registers S as the shape introduced by release. Normalizers run
// in order before decoding.
func NewShape[S VersionedState](release string, normalizers ...Normalizer) Shape {
	var zero S
	opts := make([]hydrate.DecoderOption[S], 0, len(normalizers))
	for _, normalize := range normalizers {
		if normalize == nil {
			continue
		}
		opts = append(opts, hydrate.WithPreHook[S](func(ctx hydrate.Context, raw map[string]any) (map[string]any, error) {
			return normalize(ctx.Release, raw)
		}))
	}
	decoder := hydrate.NewDecoder[S](opts...)
	return Shape{
		Version: zero.SchemaVersion(),
		Release: trimRelease(release),
		decode: func(ctx hydrate.Context, raw map[string]any) (VersionedState, error) {
			value, err := decoder.Decode(ctx, raw)
			if err != nil {
				return nil, err
			}
			return value, nil
		},
	}
}

// BuiltinShapes lists every released shape in ordinal order.
func BuiltinShapes() []Shape {
	return []Shape{
		NewShape[StateV0](LegacyRelease, DefaultSortDirs),
		NewShape[StateV1]("6.0.0", DefaultSortDirs),
		NewShape[StateV2]("6.1.0", DefaultSortDirs),
		NewShape[StateV3]("6.8.0", DefaultSortDirs),
		NewShape[StateV4]("8.0.0", DefaultSortDirs),
		NewShape[LoomState]("8.16.0"),
	}
}

// DefaultSortDirs sets sortDir to "default" on every column that has no
// sort direction. Older releases omitted the key for unsorted columns.
func DefaultSortDirs(_ string, raw map[string]any) (map[string]any, error) {
	model, ok := raw["model"].(map[string]any)
	if !ok {
		return raw, nil
	}
	columns, ok := model["columns"].([]any)
	if !ok {
		return raw, nil
	}
	for _, entry := range columns {
		column, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		switch dir := column["sortDir"].(type) {
		case nil:
			column["sortDir"] = string(SortNone)
		case string:
			if dir == "" {
				column["sortDir"] = string(SortNone)
			}
		}
	}
	return raw, nil
}

// Registry is the ordered, gapless table of shapes and the steps between
// them. It is immutable once built.
type Registry struct {
	shapes []Shape
	steps  []Step
}

// NewRegistry checks that shapes run contiguously from SchemaV0 to
// CurrentSchema with strictly increasing releases, and that steps holds
// exactly one step for each adjacent pair, in order.
func NewRegistry(shapes []Shape, steps []Step) (*Registry, error) {
	if len(shapes) == 0 {
		return nil, errors.New("loom: registry has no shapes")
	}

	var problems []error
	for i, shape := range shapes {
		if shape.Version != SchemaVersion(i) {
			problems = append(problems, fmt.Errorf("loom: shape %d has ordinal %s, want %s", i, shape.Version, SchemaVersion(i)))
		}
		if shape.decode == nil {
			problems = append(problems, fmt.Errorf("loom: shape %s has no decoder", shape.Version))
		}
		if !ValidRelease(shape.Release) {
			problems = append(problems, fmt.Errorf("loom: shape %s has invalid release %q", shape.Version, shape.Release))
			continue
		}
		if i > 0 && !ReleaseBefore(shapes[i-1].Release, shape.Release) {
			problems = append(problems, fmt.Errorf("loom: shape %s release %s does not follow %s", shape.Version, shape.Release, shapes[i-1].Release))
		}
	}
	if last := shapes[len(shapes)-1].Version; last != CurrentSchema {
		problems = append(problems, fmt.Errorf("loom: last shape is %s, want %s", last, CurrentSchema))
	}

	if len(steps) != len(shapes)-1 {
		problems = append(problems, fmt.Errorf("loom: %d steps for %d shapes, want %d", len(steps), len(shapes), len(shapes)-1))
	}
	for i, step := range steps {
		from := SchemaVersion(i)
		if step.From != from || step.To != from+1 {
			problems = append(problems, fmt.Errorf("loom: step %d (%s) migrates %s->%s, want %s->%s", i, step.Name, step.From, step.To, from, from+1))
		}
		if step.apply == nil {
			problems = append(problems, fmt.Errorf("loom: step %s has no transformer", step.Name))
		}
	}

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	return &Registry{
		shapes: append([]Shape(nil), shapes...),
		steps:  append([]Step(nil), steps...),
	}, nil
}

// MustNewRegistry is NewRegistry that panics on error.
func MustNewRegistry(shapes []Shape, steps []Step) *Registry {
	registry, err := NewRegistry(shapes, steps)
	if err != nil {
		panic(err)
	}
	return registry
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the registry of built-in shapes and steps.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = MustNewRegistry(BuiltinShapes(), BuiltinSteps())
	})
	return defaultRegistry
}

// Latest returns the release of the current shape.
func (r *Registry) Latest() string {
	return r.shapes[len(r.shapes)-1].Release
}

// Versions returns a copy of the registered shapes.
func (r *Registry) Versions() []Shape {
	return append([]Shape(nil), r.shapes...)
}

// Release returns the release that introduced v.
func (r *Registry) Release(v SchemaVersion) (string, bool) {
	if v < 0 || int(v) >= len(r.shapes) {
		return "", false
	}
	return r.shapes[v].Release, true
}

// Resolve maps a release token to the ordinal of the newest shape released at
// or before it. An empty token resolves to SchemaV0.
func (r *Registry) Resolve(release string) (SchemaVersion, error) {
	if strings.TrimSpace(release) == "" {
		return SchemaV0, nil
	}
	if !ValidRelease(release) {
		return 0, fmt.Errorf("loom: invalid release %q", release)
	}
	resolved := SchemaV0
	for _, shape := range r.shapes {
		if ReleaseBefore(release, shape.Release) {
			break
		}
		resolved = shape.Version
	}
	return resolved, nil
}

// StepsFrom returns the steps that lift a payload at v to CurrentSchema.
func (r *Registry) StepsFrom(v SchemaVersion) []Step {
	if v < 0 || int(v) >= len(r.steps) {
		return nil
	}
	return append([]Step(nil), r.steps[v:]...)
}

func (r *Registry) shape(v SchemaVersion) (Shape, bool) {
	if v < 0 || int(v) >= len(r.shapes) {
		return Shape{}, false
	}
	return r.shapes[v], true
}
