package loom

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultRegistryChainIsComplete(t *testing.T) {
	registry := DefaultRegistry()
	shapes := registry.Versions()
	if len(shapes) != int(CurrentSchema)+1 {
		t.Fatalf("expected %d shapes, got %d", CurrentSchema+1, len(shapes))
	}
	for i, shape := range shapes {
		if shape.Version != SchemaVersion(i) {
			t.Fatalf("shape %d has ordinal %s", i, shape.Version)
		}
	}
	steps := registry.StepsFrom(SchemaV0)
	if len(steps) != len(shapes)-1 {
		t.Fatalf("expected %d steps, got %d", len(shapes)-1, len(steps))
	}
	for i, step := range steps {
		if step.From != SchemaVersion(i) || step.To != SchemaVersion(i+1) {
			t.Fatalf("step %d (%s) migrates %s->%s", i, step.Name, step.From, step.To)
		}
	}
	if registry.Latest() != "8.16.0" {
		t.Fatalf("unexpected latest %q", registry.Latest())
	}
	if release, ok := registry.Release(SchemaV0); !ok || release != LegacyRelease {
		t.Fatalf("unexpected legacy release %q", release)
	}
	if _, ok := registry.Release(SchemaVersion(42)); ok {
		t.Fatalf("expected unknown ordinal")
	}
	if steps := registry.StepsFrom(CurrentSchema); len(steps) != 0 {
		t.Fatalf("expected no steps from current, got %d", len(steps))
	}
}

func TestRegistryResolve(t *testing.T) {
	cases := []struct {
		release string
		want    SchemaVersion
	}{
		{"", SchemaV0},
		{"0.0.0", SchemaV0},
		{"5.9.9", SchemaV0},
		{"6.0.0", SchemaV1},
		{"6.0.5", SchemaV1},
		{"6.1.0", SchemaV2},
		{"6.7.9", SchemaV2},
		{"6.8.0", SchemaV3},
		{"7.12.0", SchemaV3},
		{"8.0.0", SchemaV4},
		{"8.15.2", SchemaV4},
		{"8.16.0", SchemaV5},
		{"v8.16.0", SchemaV5},
		{"12.0.0", SchemaV5},
	}
	registry := DefaultRegistry()
	for _, tc := range cases {
		got, err := registry.Resolve(tc.release)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tc.release, err)
		}
		if got != tc.want {
			t.Fatalf("Resolve(%q) = %s, want %s", tc.release, got, tc.want)
		}
	}
	if _, err := registry.Resolve("eight"); err == nil {
		t.Fatalf("expected error for invalid release")
	}
}

func TestNewRegistryRejectsBrokenChains(t *testing.T) {
	shapes := BuiltinShapes()
	steps := BuiltinSteps()

	cases := []struct {
		name   string
		shapes []Shape
		steps  []Step
		want   string
	}{
		{
			name: "empty",
			want: "no shapes",
		},
		{
			name:   "gap",
			shapes: append(append([]Shape{}, shapes[:2]...), shapes[3:]...),
			steps:  steps,
			want:   "has ordinal v3, want v2",
		},
		{
			name:   "missing step",
			shapes: shapes,
			steps:  steps[:4],
			want:   "4 steps for 6 shapes",
		},
		{
			name:   "steps out of order",
			shapes: shapes,
			steps:  []Step{steps[0], steps[2], steps[1], steps[3], steps[4]},
			want:   "migrates v2->v3, want v1->v2",
		},
		{
			name:   "skipping step",
			shapes: shapes,
			steps: []Step{steps[0], steps[1], steps[2],
				NewStep("skip", func(StateV3) (LoomState, error) { return LoomState{}, nil }), steps[4]},
			want: "migrates v3->v5",
		},
		{
			name:   "missing transformer",
			shapes: shapes,
			steps:  []Step{NewStep[StateV0, StateV1]("nil", nil), steps[1], steps[2], steps[3], steps[4]},
			want:   "step nil has no transformer",
		},
		{
			name:   "release order",
			shapes: []Shape{shapes[0], NewShape[StateV1]("6.0.0"), NewShape[StateV2]("5.0.0"), shapes[3], shapes[4], shapes[5]},
			steps:  steps,
			want:   "release 5.0.0 does not follow 6.0.0",
		},
		{
			name:   "invalid release",
			shapes: []Shape{shapes[0], NewShape[StateV1]("six"), shapes[2], shapes[3], shapes[4], shapes[5]},
			steps:  steps,
			want:   `invalid release "six"`,
		},
		{
			name:   "not current",
			shapes: shapes[:5],
			steps:  steps[:4],
			want:   "last shape is v4, want v5",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.shapes, tc.steps)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestMustNewRegistryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNewRegistry(nil, nil)
}

func TestShapeNormalizers(t *testing.T) {
	var seen []string
	rename := func(release string, raw map[string]any) (map[string]any, error) {
		seen = append(seen, release)
		if model, ok := raw["model"].(map[string]any); ok {
			model["columns"] = model["cols"]
			delete(model, "cols")
		}
		return raw, nil
	}
	reject := func(string, map[string]any) (map[string]any, error) {
		return nil, errors.New("unreadable")
	}

	shapes := BuiltinShapes()
	shapes[int(SchemaV4)] = NewShape[StateV4]("8.0.0", rename, DefaultSortDirs)
	engine, err := NewEngine(WithRegistry(MustNewRegistry(shapes, BuiltinSteps())))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	raw := map[string]any{"model": map[string]any{
		"cols":    []any{map[string]any{"id": "c1", "type": "text", "tags": []any{}}},
		"rows":    []any{},
		"filters": []any{},
	}}
	state, err := engine.Migrate(raw, "8.1.0")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(state.Model.Columns) != 1 || state.Model.Columns[0].SortDir != SortNone {
		t.Fatalf("normalizers not applied: %s", dump(state.Model))
	}
	if len(seen) != 1 || seen[0] != "8.1.0" {
		t.Fatalf("normalizer saw releases %v", seen)
	}

	shapes[int(SchemaV4)] = NewShape[StateV4]("8.0.0", reject)
	engine, err = NewEngine(WithRegistry(MustNewRegistry(shapes, BuiltinSteps())))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := engine.Migrate(raw, "8.1.0"); !errors.Is(err, ErrMalformedPayload) || !strings.Contains(err.Error(), "unreadable") {
		t.Fatalf("expected malformed payload from normalizer, got %v", err)
	}
}
