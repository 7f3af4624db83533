package loom

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-loom/internal/hydrate"
)

// Engine lifts payloads of any registered shape to LoomState. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	registry  *Registry
	current   string
	logger    MigrationLogger
	validator Validator
}

// Report describes what one Migrate call did.
type Report struct {
	Declared string
	From     SchemaVersion
	To       SchemaVersion
	Steps    []string
	Duration time.Duration
}

// Migrated reports whether any step ran.
func (r Report) Migrated() bool {
	return len(r.Steps) > 0
}

// NewEngine builds an engine from opts.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := applyOptions(opts)

	current := trimRelease(cfg.current)
	if current == "" {
		current = cfg.registry.Latest()
	}
	cmp, err := CompareReleases(current, cfg.registry.Latest())
	if err != nil {
		return nil, fmt.Errorf("loom: current version: %w", err)
	}
	if cmp < 0 {
		return nil, fmt.Errorf("loom: current version %s is older than the latest schema release %s", current, cfg.registry.Latest())
	}

	return &Engine{
		registry:  cfg.registry,
		current:   current,
		logger:    cfg.logger,
		validator: cfg.validator,
	}, nil
}

// CurrentVersion returns the release stamped on every migrated state.
func (e *Engine) CurrentVersion() string {
	return e.current
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Migrate decodes raw as the shape declared by the release token and applies
// every step up to the current schema. An empty token selects the legacy
// shape. raw is never mutated.
func (e *Engine) Migrate(raw map[string]any, declared string) (LoomState, error) {
	state, _, err := e.MigrateWithReport(raw, declared)
	return state, err
}

// MigrateWithReport is Migrate plus a report of the steps applied. The
// report is filled as far as the migration got, even on error.
func (e *Engine) MigrateWithReport(raw map[string]any, declared string) (state LoomState, report Report, err error) {
	start := time.Now()
	declared = trimRelease(declared)
	report = Report{Declared: declared, To: CurrentSchema}
	defer func() {
		report.Duration = time.Since(start)
		e.logger.LogMigration(MigrationLogEvent{
			Declared: report.Declared,
			From:     report.From,
			To:       report.To,
			Steps:    report.Steps,
			Duration: report.Duration,
			Err:      err,
		})
	}()

	if raw == nil {
		return LoomState{}, report, newLoadError(KindMalformedPayload, declared, fmt.Errorf("payload is nil"))
	}

	release := declared
	if release == "" {
		release = LegacyRelease
	}
	cmp, cmpErr := CompareReleases(release, e.current)
	if cmpErr != nil {
		return LoomState{}, report, newLoadError(KindMalformedPayload, declared, cmpErr)
	}
	if cmp > 0 {
		return LoomState{}, report, newLoadError(KindUnsupportedFutureVersion, declared,
			fmt.Errorf("declared %s is newer than %s", release, e.current))
	}

	from, resolveErr := e.registry.Resolve(release)
	if resolveErr != nil {
		return LoomState{}, report, newLoadError(KindMalformedPayload, declared, resolveErr)
	}
	report.From = from

	shape, ok := e.registry.shape(from)
	if !ok {
		return LoomState{}, report, newLoadError(KindMalformedPayload, declared, fmt.Errorf("no shape registered for %s", from))
	}
	current, decodeErr := shape.decode(hydrate.Context{Release: release, Schema: int(from)}, raw)
	if decodeErr != nil {
		return LoomState{}, report, newLoadError(KindMalformedPayload, declared, decodeErr)
	}

	for _, step := range e.registry.StepsFrom(from) {
		next, stepErr := step.Apply(current)
		if stepErr != nil {
			loadErr := newLoadError(KindMigrationStepFailed, declared, stepErr)
			loadErr.Step = step.Name
			return LoomState{}, report, loadErr
		}
		report.Steps = append(report.Steps, step.Name)
		current = next
	}

	result, ok := current.(LoomState)
	if !ok {
		return LoomState{}, report, newLoadError(KindPostMigrationSchemaMismatch, declared,
			fmt.Errorf("chain ended at %T", current))
	}
	result.PluginVersion = e.current

	if validateErr := e.validator.Validate(result); validateErr != nil {
		return LoomState{}, report, newLoadError(KindPostMigrationSchemaMismatch, declared, validateErr)
	}
	return result, report, nil
}

// Pending lists the step names a payload declaring release would go through.
func (e *Engine) Pending(release string) ([]string, error) {
	if strings.TrimSpace(release) == "" {
		release = LegacyRelease
	}
	from, err := e.registry.Resolve(release)
	if err != nil {
		return nil, err
	}
	steps := e.registry.StepsFrom(from)
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name
	}
	return names, nil
}

var (
	defaultEngineOnce sync.Once
	defaultEngine     *Engine
)

// DefaultEngine returns the engine built from the default registry.
func DefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		engine, err := NewEngine()
		if err != nil {
			panic(err)
		}
		defaultEngine = engine
	})
	return defaultEngine
}

// Migrate runs raw through the default engine.
func Migrate(raw map[string]any, declared string) (LoomState, error) {
	return DefaultEngine().Migrate(raw, declared)
}
