package loom

// CellType tags the kind of values a column holds.
type CellType string

const (
	CellTypeText           CellType = "text"
	CellTypeNumber         CellType = "number"
	CellTypeTag            CellType = "tag"
	CellTypeMultiTag       CellType = "multi-tag"
	CellTypeCheckbox       CellType = "checkbox"
	CellTypeDate           CellType = "date"
	CellTypeFile           CellType = "file"
	CellTypeEmbed          CellType = "embed"
	CellTypeSource         CellType = "source"
	CellTypeCreationTime   CellType = "creation-time"
	CellTypeLastEditedTime CellType = "last-edited-time"
)

// SortDir is a column sort direction. SortNone serialises as "default".
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
	SortNone SortDir = "default"
)

// FilterOperator joins a filter with the one before it.
type FilterOperator string

const (
	FilterAnd FilterOperator = "and"
	FilterOr  FilterOperator = "or"
)

// FilterCondition is the comparison a filter applies to a cell.
type FilterCondition string

const (
	ConditionIs             FilterCondition = "is"
	ConditionIsNot          FilterCondition = "is-not"
	ConditionContains       FilterCondition = "contains"
	ConditionDoesNotContain FilterCondition = "does-not-contain"
	ConditionStartsWith     FilterCondition = "starts-with"
	ConditionEndsWith       FilterCondition = "ends-with"
	ConditionIsEmpty        FilterCondition = "is-empty"
	ConditionIsNotEmpty     FilterCondition = "is-not-empty"
)

// VersionField is the top-level key holding the version marker.
const VersionField = "pluginVersion"

// LoomState is the current schema shape. It is the only shape handed to the
// rendering layer.
type LoomState struct {
	PluginVersion string `json:"pluginVersion" validate:"required,semver"`
	Model         Model  `json:"model"`
}

// Model holds the table itself.
type Model struct {
	Columns  []Column `json:"columns" validate:"required,dive"`
	Rows     []Row    `json:"rows" validate:"required,dive"`
	Filters  []Filter `json:"filters" validate:"required,dive"`
	Settings Settings `json:"settings"`
}

type Column struct {
	ID              string   `json:"id" validate:"required"`
	Content         string   `json:"content"`
	Type            CellType `json:"type" validate:"required,oneof=text number tag multi-tag checkbox date file embed source creation-time last-edited-time"`
	SortDir         SortDir  `json:"sortDir" validate:"required,oneof=asc desc default"`
	MultiTagSortDir SortDir  `json:"multiTagSortDir" validate:"required,oneof=asc desc default"`
	Width           string   `json:"width"`
	IsVisible       bool     `json:"isVisible"`
	FrontmatterKey  string   `json:"frontmatterKey,omitempty"`
	Tags            []Tag    `json:"tags" validate:"dive"`
}

type Tag struct {
	ID      string `json:"id" validate:"required"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

type Row struct {
	ID             string `json:"id" validate:"required"`
	CreationTime   int64  `json:"creationTime" validate:"gte=0"`
	LastEditedTime int64  `json:"lastEditedTime" validate:"gte=0"`
	Cells          []Cell `json:"cells" validate:"required,dive"`
}

type Cell struct {
	ID       string   `json:"id" validate:"required"`
	ColumnID string   `json:"columnId" validate:"required"`
	Content  string   `json:"content"`
	TagIDs   []string `json:"tagIds"`
}

type Filter struct {
	ID        string          `json:"id" validate:"required"`
	ColumnID  string          `json:"columnId" validate:"required"`
	Condition FilterCondition `json:"condition" validate:"required,oneof=is is-not contains does-not-contain starts-with ends-with is-empty is-not-empty"`
	Text      string          `json:"text"`
	IsEnabled bool            `json:"isEnabled"`
	Operator  FilterOperator  `json:"operator" validate:"required,oneof=and or"`
}

type Settings struct {
	NumFrozenColumns   int  `json:"numFrozenColumns" validate:"gte=0"`
	ShowCalculationRow bool `json:"showCalculationRow"`
}

func (LoomState) SchemaVersion() SchemaVersion { return CurrentSchema }
func (LoomState) isVersionedState()            {}

// Column looks up a column by id.
func (s LoomState) Column(id string) (Column, bool) {
	for _, column := range s.Model.Columns {
		if column.ID == id {
			return column, true
		}
	}
	return Column{}, false
}

// Clone returns a deep copy of s. Listeners receiving a broadcast state get
// their own copy.
func (s LoomState) Clone() LoomState {
	out := s
	out.Model.Columns = cloneColumns(s.Model.Columns)
	out.Model.Filters = cloneSlice(s.Model.Filters)
	if s.Model.Rows != nil {
		out.Model.Rows = make([]Row, len(s.Model.Rows))
		for i, row := range s.Model.Rows {
			out.Model.Rows[i] = row
			out.Model.Rows[i].Cells = cloneCells(row.Cells)
		}
	}
	return out
}

func cloneColumns(columns []Column) []Column {
	if columns == nil {
		return nil
	}
	out := make([]Column, len(columns))
	for i, column := range columns {
		out[i] = column
		out[i].Tags = cloneSlice(column.Tags)
	}
	return out
}

func cloneCells(cells []Cell) []Cell {
	if cells == nil {
		return nil
	}
	out := make([]Cell, len(cells))
	for i, cell := range cells {
		out[i] = cell
		out[i].TagIDs = cloneSlice(cell.TagIDs)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
