// Package rules evaluates small boolean and value expressions against a map
// snapshot. It backs the structural schema checks run after a migration and
// the file filters used by the batch tooling.
//
// Three engines share the Evaluator contract:
//   - expr (github.com/expr-lang/expr), the default;
//   - CEL (github.com/google/cel-go);
//   - JavaScript (github.com/dop251/goja), only with the js_eval build tag.
package rules

import (
	"fmt"
	"time"
)

// Context carries the inputs for one evaluation.
type Context struct {
	Snapshot map[string]any
	Args     map[string]any
	Now      *time.Time
}

func (ctx Context) withDefaults() Context {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx Context) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx Context, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// Engine names a supported evaluator backend.
type Engine string

const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
	EngineJS   Engine = "js"
)

// New builds the evaluator for engine, sharing cache and registry across it.
// The JS engine returns an error unless the binary was built with js_eval.
func New(engine Engine, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch engine {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("rules: js engine requires the js_eval build tag")
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("rules: unknown engine %q", engine)
	}
}

// EvaluateBool runs expr and requires a boolean result.
func EvaluateBool(evaluator Evaluator, ctx Context, expr string) (bool, error) {
	if evaluator == nil {
		return false, ErrNoEvaluator
	}
	value, err := evaluator.Evaluate(ctx, expr)
	if err != nil {
		return false, err
	}
	result, ok := value.(bool)
	if !ok {
		return false, &EvaluationError{Expr: expr, Err: fmt.Errorf("expected bool result, got %T", value)}
	}
	return result, nil
}
