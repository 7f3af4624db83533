package loom

// Built-in migration steps, one per released shape boundary.

// BuiltinSteps returns the steps from SchemaV0 to CurrentSchema in order.
func BuiltinSteps() []Step {
	return []Step{
		NewStep("6.0.0 content rename", migrateV0),
		NewStep("6.1.0 row timestamps", migrateV1),
		NewStep("6.8.0 visibility and filter rules", migrateV2),
		NewStep("8.0.0 filters and settings", migrateV3),
		NewStep("8.16.0 multi-tag sort", migrateV4),
	}
}

// migrateV0 renames markdown to content on tags and cells. The marker is
// left empty; the engine stamps the real version at the end of the chain.
func migrateV0(prev StateV0) (StateV1, error) {
	var columns []ColumnV1
	if prev.Model.Columns != nil {
		columns = make([]ColumnV1, len(prev.Model.Columns))
		for i, column := range prev.Model.Columns {
			var tags []Tag
			if column.Tags != nil {
				tags = make([]Tag, len(column.Tags))
				for j, tag := range column.Tags {
					tags[j] = Tag{ID: tag.ID, Content: tag.Markdown, Color: tag.Color}
				}
			}
			columns[i] = ColumnV1{
				ID:      column.ID,
				Content: column.Content,
				Type:    column.Type,
				SortDir: sortDirOrNone(column.SortDir),
				Width:   column.Width,
				Tags:    tags,
			}
		}
	}

	var rows []RowV1
	if prev.Model.Rows != nil {
		rows = make([]RowV1, len(prev.Model.Rows))
		for i, row := range prev.Model.Rows {
			var cells []Cell
			if row.Cells != nil {
				cells = make([]Cell, len(row.Cells))
				for j, cell := range row.Cells {
					cells[j] = Cell{
						ID:       cell.ID,
						ColumnID: cell.ColumnID,
						Content:  cell.Markdown,
						TagIDs:   cloneSlice(cell.TagIDs),
					}
				}
			}
			rows[i] = RowV1{ID: row.ID, Index: row.Index, Cells: cells}
		}
	}

	return StateV1{Model: ModelV1{Columns: columns, Rows: rows}}, nil
}

// migrateV1 adds creation and edit timestamps to rows. Files of this shape
// never recorded them, so both default to zero.
func migrateV1(prev StateV1) (StateV2, error) {
	var rows []RowV2
	if prev.Model.Rows != nil {
		rows = make([]RowV2, len(prev.Model.Rows))
		for i, row := range prev.Model.Rows {
			rows[i] = RowV2{
				ID:    row.ID,
				Index: row.Index,
				Cells: cloneCells(row.Cells),
			}
		}
	}
	return StateV2{
		PluginVersion: prev.PluginVersion,
		Model: ModelV2{
			Columns: cloneColumnsV1(prev.Model.Columns),
			Rows:    rows,
		},
	}, nil
}

// migrateV2 makes every column visible and starts with no filter rules.
func migrateV2(prev StateV2) (StateV3, error) {
	var columns []ColumnV3
	if prev.Model.Columns != nil {
		columns = make([]ColumnV3, len(prev.Model.Columns))
		for i, column := range prev.Model.Columns {
			columns[i] = ColumnV3{
				ID:        column.ID,
				Content:   column.Content,
				Type:      column.Type,
				SortDir:   column.SortDir,
				Width:     column.Width,
				IsVisible: true,
				Tags:      cloneSlice(column.Tags),
			}
		}
	}
	rows := cloneSlice(prev.Model.Rows)
	for i := range rows {
		rows[i].Cells = cloneCells(rows[i].Cells)
	}
	return StateV3{
		PluginVersion: prev.PluginVersion,
		Model: ModelV3{
			Columns:     columns,
			Rows:        rows,
			FilterRules: []FilterRuleV3{},
		},
	}, nil
}

// migrateV3 is a breaking transformation:
//   - filterRules become filters joined with "and";
//   - rows[].index is removed, array order is authoritative;
//   - settings start with one frozen column and the calculation row shown.
func migrateV3(prev StateV3) (StateV4, error) {
	var columns []ColumnV4
	if prev.Model.Columns != nil {
		columns = make([]ColumnV4, len(prev.Model.Columns))
		for i, column := range prev.Model.Columns {
			columns[i] = ColumnV4{
				ID:        column.ID,
				Content:   column.Content,
				Type:      column.Type,
				SortDir:   column.SortDir,
				Width:     column.Width,
				IsVisible: column.IsVisible,
				Tags:      cloneSlice(column.Tags),
			}
		}
	}

	var rows []Row
	if prev.Model.Rows != nil {
		rows = make([]Row, len(prev.Model.Rows))
		for i, row := range prev.Model.Rows {
			rows[i] = Row{
				ID:             row.ID,
				CreationTime:   row.CreationTime,
				LastEditedTime: row.LastEditedTime,
				Cells:          cloneCells(row.Cells),
			}
		}
	}

	filters := make([]Filter, len(prev.Model.FilterRules))
	for i, rule := range prev.Model.FilterRules {
		filters[i] = Filter{
			ID:        rule.ID,
			ColumnID:  rule.ColumnID,
			Condition: rule.Condition,
			Text:      rule.Text,
			IsEnabled: rule.IsEnabled,
			Operator:  FilterAnd,
		}
	}

	return StateV4{
		PluginVersion: prev.PluginVersion,
		Model: ModelV4{
			Columns: columns,
			Rows:    rows,
			Filters: filters,
			Settings: Settings{
				NumFrozenColumns:   1,
				ShowCalculationRow: true,
			},
		},
	}, nil
}

// migrateV4 adds a multi-tag sort direction to every column, defaulting to
// SortNone.
func migrateV4(prev StateV4) (LoomState, error) {
	var columns []Column
	if prev.Model.Columns != nil {
		columns = make([]Column, len(prev.Model.Columns))
		for i, column := range prev.Model.Columns {
			columns[i] = Column{
				ID:              column.ID,
				Content:         column.Content,
				Type:            column.Type,
				SortDir:         column.SortDir,
				MultiTagSortDir: SortNone,
				Width:           column.Width,
				IsVisible:       column.IsVisible,
				FrontmatterKey:  column.FrontmatterKey,
				Tags:            cloneSlice(column.Tags),
			}
		}
	}

	var rows []Row
	if prev.Model.Rows != nil {
		rows = make([]Row, len(prev.Model.Rows))
		for i, row := range prev.Model.Rows {
			rows[i] = row
			rows[i].Cells = cloneCells(row.Cells)
		}
	}

	return LoomState{
		PluginVersion: prev.PluginVersion,
		Model: Model{
			Columns:  columns,
			Rows:     rows,
			Filters:  cloneSlice(prev.Model.Filters),
			Settings: prev.Model.Settings,
		},
	}, nil
}

func sortDirOrNone(dir SortDir) SortDir {
	if dir == "" {
		return SortNone
	}
	return dir
}

func cloneColumnsV1(columns []ColumnV1) []ColumnV1 {
	if columns == nil {
		return nil
	}
	out := make([]ColumnV1, len(columns))
	for i, column := range columns {
		out[i] = column
		out[i].Tags = cloneSlice(column.Tags)
	}
	return out
}
