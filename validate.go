package loom

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-loom/internal/rules"
)

// Validator checks that a LoomState satisfies the current schema.
type Validator interface {
	Validate(LoomState) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(LoomState) error

// Validate implements Validator.
func (f ValidatorFunc) Validate(state LoomState) error {
	if f == nil {
		return nil
	}
	return f(state)
}

// ValidationError lists every problem found in one state.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "loom: invalid state"
	}
	return "loom: invalid state: " + strings.Join(e.Problems, "; ")
}

// referenceRules are evaluated with CEL over a plain-map snapshot of the
// model, keyed by the problem reported when the rule is false.
var referenceRules = []struct {
	problem string
	expr    string
}{
	{
		problem: "cell references an unknown column",
		expr:    `rows.all(r, r.cells.all(c, columns.exists(col, col.id == c.columnId)))`,
	},
	{
		problem: "filter references an unknown column",
		expr:    `filters.all(f, columns.exists(col, col.id == f.columnId))`,
	},
	{
		problem: "cell references a tag missing from its column",
		expr:    `rows.all(r, r.cells.all(c, c.tagIds.all(t, columns.exists(col, col.id == c.columnId && col.tags.exists(g, g.id == t)))))`,
	},
	{
		problem: "row holds more than one cell for a column",
		expr:    `rows.all(r, r.cells.all(c, r.cells.filter(d, d.columnId == c.columnId).size() == 1))`,
	},
}

type schemaValidator struct {
	structs  *validator.Validate
	compiled []rules.CompiledRule
}

// DefaultValidator checks struct tags with go-playground/validator, id
// uniqueness, and the cross-reference rules.
func DefaultValidator() Validator {
	return newSchemaValidator()
}

var (
	sharedValidatorOnce sync.Once
	sharedValidatorInst Validator
)

func sharedValidator() Validator {
	sharedValidatorOnce.Do(func() {
		sharedValidatorInst = newSchemaValidator()
	})
	return sharedValidatorInst
}

func newSchemaValidator() *schemaValidator {
	structs := validator.New(validator.WithRequiredStructEnabled())
	structs.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	evaluator := rules.NewCELEvaluator(rules.CELWithProgramCache(rules.NewMapCache()))
	compiled := make([]rules.CompiledRule, len(referenceRules))
	for i, rule := range referenceRules {
		program, err := evaluator.Compile(rule.expr)
		if err != nil {
			// The rule set is fixed; a compile failure is a build defect.
			panic(fmt.Sprintf("loom: compile rule %q: %v", rule.problem, err))
		}
		compiled[i] = program
	}

	return &schemaValidator{structs: structs, compiled: compiled}
}

func (v *schemaValidator) Validate(state LoomState) error {
	var problems []string

	if err := v.structs.Struct(state); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
		// Reference checks assume the lists are present.
		return &ValidationError{Problems: problems}
	}

	problems = append(problems, duplicateIDs(state)...)

	ctx := rules.Context{Snapshot: modelSnapshot(state.Model)}
	for i, program := range v.compiled {
		out, err := program.Evaluate(ctx)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", referenceRules[i].problem, err))
			continue
		}
		if ok, isBool := out.(bool); !isBool || !ok {
			problems = append(problems, referenceRules[i].problem)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", path, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", path, fe.Tag())
}

func duplicateIDs(state LoomState) []string {
	var problems []string
	check := func(kind string, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				problems = append(problems, fmt.Sprintf("duplicate %s id %q", kind, id))
				continue
			}
			seen[id] = struct{}{}
		}
	}

	columnIDs := make([]string, len(state.Model.Columns))
	for i, column := range state.Model.Columns {
		columnIDs[i] = column.ID
		tagIDs := make([]string, len(column.Tags))
		for j, tag := range column.Tags {
			tagIDs[j] = tag.ID
		}
		check("tag", tagIDs)
	}
	check("column", columnIDs)

	rowIDs := make([]string, len(state.Model.Rows))
	for i, row := range state.Model.Rows {
		rowIDs[i] = row.ID
	}
	check("row", rowIDs)

	filterIDs := make([]string, len(state.Model.Filters))
	for i, filter := range state.Model.Filters {
		filterIDs[i] = filter.ID
	}
	check("filter", filterIDs)

	return problems
}

// modelSnapshot flattens the fields the reference rules read into plain
// maps and lists. Lists are never nil.
func modelSnapshot(model Model) map[string]any {
	columns := make([]any, len(model.Columns))
	for i, column := range model.Columns {
		tags := make([]any, len(column.Tags))
		for j, tag := range column.Tags {
			tags[j] = map[string]any{"id": tag.ID}
		}
		columns[i] = map[string]any{"id": column.ID, "tags": tags}
	}

	rows := make([]any, len(model.Rows))
	for i, row := range model.Rows {
		cells := make([]any, len(row.Cells))
		for j, cell := range row.Cells {
			tagIDs := make([]any, len(cell.TagIDs))
			for k, id := range cell.TagIDs {
				tagIDs[k] = id
			}
			cells[j] = map[string]any{"id": cell.ID, "columnId": cell.ColumnID, "tagIds": tagIDs}
		}
		rows[i] = map[string]any{"id": row.ID, "cells": cells}
	}

	filters := make([]any, len(model.Filters))
	for i, filter := range model.Filters {
		filters[i] = map[string]any{"id": filter.ID, "columnId": filter.ColumnID}
	}

	return map[string]any{"columns": columns, "rows": rows, "filters": filters}
}
