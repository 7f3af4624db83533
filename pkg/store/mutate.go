package store

import (
	"context"
	"fmt"

	loom "github.com/goliatone/go-loom"
)

// Mutator edits a loaded state in place.
type Mutator func(*loom.LoomState) error

// Result describes one Mutate call.
type Result struct {
	State   loom.LoomState
	Report  loom.Report
	Meta    Meta
	Changed bool
}

// Mutate loads path, migrates it with engine, applies fn (which may be nil)
// and writes the result back when the serialized text differs. With a nil
// fn, a file that needed no steps and already declares the engine's release
// is left as is, whatever its formatting. The write is guarded by the ETag
// seen at load time.
func Mutate(ctx context.Context, s Store, engine *loom.Engine, path string, fn Mutator) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("store: store is required")
	}
	if engine == nil {
		engine = loom.DefaultEngine()
	}

	data, meta, ok, err := s.Load(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("store: %s not found", path)
	}

	state, report, err := engine.DeserializeWithReport(data)
	if err != nil {
		return Result{Report: report, Meta: meta}, err
	}
	if fn == nil && !report.Migrated() && report.Declared == engine.CurrentVersion() {
		return Result{State: state, Report: report, Meta: meta}, nil
	}
	if fn != nil {
		if err := fn(&state); err != nil {
			return Result{State: state, Report: report, Meta: meta}, err
		}
	}

	out, err := engine.Serialize(state)
	if err != nil {
		return Result{State: state, Report: report, Meta: meta}, err
	}
	result := Result{State: state, Report: report, Meta: meta}
	if string(out) == string(data) {
		return result, nil
	}

	saved, err := s.Save(ctx, path, out, meta.ETag)
	if err != nil {
		return result, fmt.Errorf("store: save %s: %w", path, err)
	}
	result.Meta = saved
	result.Changed = true
	return result, nil
}
