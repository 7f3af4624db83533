package loom

import "github.com/google/uuid"

// NewState returns a fresh current-shape table with the given number of
// empty text columns and rows. Ids are random UUIDs.
func NewState(columns, rows int) LoomState {
	if columns < 1 {
		columns = 1
	}
	if rows < 0 {
		rows = 0
	}

	state := LoomState{
		PluginVersion: DefaultRegistry().Latest(),
		Model: Model{
			Columns:  make([]Column, columns),
			Rows:     make([]Row, rows),
			Filters:  []Filter{},
			Settings: Settings{NumFrozenColumns: 1, ShowCalculationRow: true},
		},
	}
	for i := range state.Model.Columns {
		state.Model.Columns[i] = Column{
			ID:              uuid.NewString(),
			Type:            CellTypeText,
			SortDir:         SortNone,
			MultiTagSortDir: SortNone,
			Width:           "140px",
			IsVisible:       true,
			Tags:            []Tag{},
		}
	}
	for i := range state.Model.Rows {
		state.Model.Rows[i] = NewRow(state.Model.Columns)
	}
	return state
}

// NewRow returns an empty row with one cell per column.
func NewRow(columns []Column) Row {
	cells := make([]Cell, len(columns))
	for i, column := range columns {
		cells[i] = Cell{ID: uuid.NewString(), ColumnID: column.ID, TagIDs: []string{}}
	}
	return Row{ID: uuid.NewString(), Cells: cells}
}
