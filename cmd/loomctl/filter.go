package main

import (
	"fmt"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/internal/rules"
)

// fileFilter is a --where expression bound to its evaluator. The evaluator
// caches the compiled program.
type fileFilter struct {
	evaluator  rules.Evaluator
	expression string
}

func compileFilter(engine rules.Engine, expression string) (*fileFilter, error) {
	functions := rules.NewFunctionRegistry()
	if err := functions.Register("before", releaseBefore); err != nil {
		return nil, err
	}
	evaluator, err := rules.New(engine, rules.NewMapCache(), functions)
	if err != nil {
		return nil, err
	}
	if _, err := evaluator.Compile(expression); err != nil {
		return nil, fmt.Errorf("--where: %w", err)
	}
	return &fileFilter{evaluator: evaluator, expression: expression}, nil
}

func releaseBefore(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("before expects 2 arguments, got %d", len(args))
	}
	a, okA := args[0].(string)
	b, okB := args[1].(string)
	if !okA || !okB {
		return nil, fmt.Errorf("before expects release strings")
	}
	return loom.ReleaseBefore(a, b), nil
}

func (f *fileFilter) match(snapshot map[string]any) (bool, error) {
	match, err := rules.EvaluateBool(f.evaluator, rules.Context{Snapshot: snapshot}, f.expression)
	if err != nil {
		return false, fmt.Errorf("--where: %w", err)
	}
	return match, nil
}

// fileSnapshot describes a file before migration. Files without a marker
// report the legacy release so before() can still order them.
func fileSnapshot(registry *loom.Registry, path, declared string, raw map[string]any) map[string]any {
	version := declared
	if version == "" {
		version = loom.LegacyRelease
	}
	ordinal := -1
	if from, err := registry.Resolve(version); err == nil {
		ordinal = int(from)
	}
	columns, rows := 0, 0
	if model, ok := raw["model"].(map[string]any); ok {
		if list, ok := model["columns"].([]any); ok {
			columns = len(list)
		}
		if list, ok := model["rows"].([]any); ok {
			rows = len(list)
		}
	}
	return map[string]any{
		"path":    path,
		"version": version,
		"ordinal": ordinal,
		"columns": columns,
		"rows":    rows,
	}
}
