package rules

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoEvaluator = errors.New("rules: evaluator not configured")

// EvaluationError captures engine and expression alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	engine := e.Engine
	if engine == "" {
		engine = "unknown"
	}
	return fmt.Sprintf("rules: %s evaluator %s: %v", engine, describeExpression(e.Expr), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluationError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		return evalErr
	}
	if strings.HasPrefix(err.Error(), "rules:") {
		return err
	}
	return &EvaluationError{Engine: engine, Expr: expr, Err: err}
}
