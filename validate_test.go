package loom

import (
	"errors"
	"strings"
	"testing"
)

func validState() LoomState {
	state := NewState(2, 1)
	state.Model.Columns[1].Type = CellTypeTag
	state.Model.Columns[1].Tags = []Tag{{ID: "t1", Content: "done", Color: "green"}}
	state.Model.Rows[0].Cells[1].TagIDs = []string{"t1"}
	state.Model.Filters = []Filter{{
		ID: "f1", ColumnID: state.Model.Columns[0].ID, Condition: ConditionContains, Operator: FilterAnd,
	}}
	return state
}

func TestDefaultValidatorAcceptsNewState(t *testing.T) {
	if err := DefaultValidator().Validate(NewState(3, 4)); err != nil {
		t.Fatalf("fresh state should validate: %v", err)
	}
	if err := DefaultValidator().Validate(validState()); err != nil {
		t.Fatalf("valid state rejected: %v", err)
	}
}

func TestDefaultValidatorProblems(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*LoomState)
		want   string
	}{
		{
			name:   "missing marker",
			mutate: func(s *LoomState) { s.PluginVersion = "" },
			want:   "pluginVersion failed required",
		},
		{
			name:   "bad marker",
			mutate: func(s *LoomState) { s.PluginVersion = "eight" },
			want:   "pluginVersion failed semver",
		},
		{
			name:   "nil columns",
			mutate: func(s *LoomState) { s.Model.Columns = nil },
			want:   "model.columns failed required",
		},
		{
			name:   "nil filters",
			mutate: func(s *LoomState) { s.Model.Filters = nil },
			want:   "model.filters failed required",
		},
		{
			name:   "unknown cell type",
			mutate: func(s *LoomState) { s.Model.Columns[0].Type = "rich" },
			want:   "failed oneof",
		},
		{
			name:   "negative frozen columns",
			mutate: func(s *LoomState) { s.Model.Settings.NumFrozenColumns = -1 },
			want:   "model.settings.numFrozenColumns failed gte=0",
		},
		{
			name:   "duplicate column",
			mutate: func(s *LoomState) { s.Model.Columns[1].ID = s.Model.Columns[0].ID },
			want:   "duplicate column id",
		},
		{
			name:   "duplicate row",
			mutate: func(s *LoomState) { s.Model.Rows = append(s.Model.Rows, s.Model.Rows[0]) },
			want:   "duplicate row id",
		},
		{
			name: "duplicate tag",
			mutate: func(s *LoomState) {
				s.Model.Columns[1].Tags = append(s.Model.Columns[1].Tags, Tag{ID: "t1"})
			},
			want: `duplicate tag id "t1"`,
		},
		{
			name:   "unknown cell column",
			mutate: func(s *LoomState) { s.Model.Rows[0].Cells[0].ColumnID = "ghost" },
			want:   "cell references an unknown column",
		},
		{
			name:   "unknown filter column",
			mutate: func(s *LoomState) { s.Model.Filters[0].ColumnID = "ghost" },
			want:   "filter references an unknown column",
		},
		{
			name:   "missing tag",
			mutate: func(s *LoomState) { s.Model.Rows[0].Cells[1].TagIDs = []string{"nope"} },
			want:   "cell references a tag missing from its column",
		},
		{
			name: "two cells for one column",
			mutate: func(s *LoomState) {
				s.Model.Rows[0].Cells[1].ColumnID = s.Model.Rows[0].Cells[0].ColumnID
				s.Model.Rows[0].Cells[1].TagIDs = []string{}
			},
			want: "row holds more than one cell for a column",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := validState()
			tc.mutate(&state)
			err := DefaultValidator().Validate(state)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestValidationErrorText(t *testing.T) {
	err := &ValidationError{Problems: []string{"a", "b"}}
	if err.Error() != "loom: invalid state: a; b" {
		t.Fatalf("unexpected text %q", err.Error())
	}
	if (&ValidationError{}).Error() != "loom: invalid state" {
		t.Fatalf("unexpected empty text")
	}
}

func TestValidatorFunc(t *testing.T) {
	var nilFunc ValidatorFunc
	if err := nilFunc.Validate(LoomState{}); err != nil {
		t.Fatalf("nil func should accept: %v", err)
	}
	called := false
	fn := ValidatorFunc(func(LoomState) error { called = true; return nil })
	_ = fn.Validate(LoomState{})
	if !called {
		t.Fatalf("func not invoked")
	}
}
