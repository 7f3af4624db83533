package loom

// Historical shapes. Each one is a frozen snapshot of what a release wrote;
// never edit a shape once released; add a new one and a step instead.

// StateV0 is the legacy shape written before the version marker existed.
type StateV0 struct {
	Model ModelV0 `json:"model"`
}

type ModelV0 struct {
	Columns []ColumnV0 `json:"columns"`
	Rows    []RowV0    `json:"rows"`
}

type ColumnV0 struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Type    CellType `json:"type"`
	SortDir SortDir  `json:"sortDir"`
	Width   string   `json:"width"`
	Tags    []TagV0  `json:"tags"`
}

type TagV0 struct {
	ID       string `json:"id"`
	Markdown string `json:"markdown"`
	Color    string `json:"color"`
}

type RowV0 struct {
	ID    string   `json:"id"`
	Index int      `json:"index"`
	Cells []CellV0 `json:"cells"`
}

type CellV0 struct {
	ID       string   `json:"id"`
	ColumnID string   `json:"columnId"`
	Markdown string   `json:"markdown"`
	TagIDs   []string `json:"tagIds"`
}

// StateV1 (6.0.0) carries the version marker and names text "content".
type StateV1 struct {
	PluginVersion string  `json:"pluginVersion"`
	Model         ModelV1 `json:"model"`
}

type ModelV1 struct {
	Columns []ColumnV1 `json:"columns"`
	Rows    []RowV1    `json:"rows"`
}

type ColumnV1 struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Type    CellType `json:"type"`
	SortDir SortDir  `json:"sortDir"`
	Width   string   `json:"width"`
	Tags    []Tag    `json:"tags"`
}

type RowV1 struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Cells []Cell `json:"cells"`
}

// StateV2 (6.1.0) timestamps rows.
type StateV2 struct {
	PluginVersion string  `json:"pluginVersion"`
	Model         ModelV2 `json:"model"`
}

type ModelV2 struct {
	Columns []ColumnV1 `json:"columns"`
	Rows    []RowV2    `json:"rows"`
}

type RowV2 struct {
	ID             string `json:"id"`
	Index          int    `json:"index"`
	CreationTime   int64  `json:"creationTime"`
	LastEditedTime int64  `json:"lastEditedTime"`
	Cells          []Cell `json:"cells"`
}

// StateV3 (6.8.0) adds column visibility and filter rules.
type StateV3 struct {
	PluginVersion string  `json:"pluginVersion"`
	Model         ModelV3 `json:"model"`
}

type ModelV3 struct {
	Columns     []ColumnV3     `json:"columns"`
	Rows        []RowV2        `json:"rows"`
	FilterRules []FilterRuleV3 `json:"filterRules"`
}

type ColumnV3 struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Type      CellType `json:"type"`
	SortDir   SortDir  `json:"sortDir"`
	Width     string   `json:"width"`
	IsVisible bool     `json:"isVisible"`
	Tags      []Tag    `json:"tags"`
}

type FilterRuleV3 struct {
	ID        string          `json:"id"`
	ColumnID  string          `json:"columnId"`
	Condition FilterCondition `json:"condition"`
	Text      string          `json:"text"`
	IsEnabled bool            `json:"isEnabled"`
}

// StateV4 (8.0.0) replaces filter rules with operator-joined filters, drops
// the row index and adds table settings.
type StateV4 struct {
	PluginVersion string  `json:"pluginVersion"`
	Model         ModelV4 `json:"model"`
}

type ModelV4 struct {
	Columns  []ColumnV4 `json:"columns"`
	Rows     []Row      `json:"rows"`
	Filters  []Filter   `json:"filters"`
	Settings Settings   `json:"settings"`
}

type ColumnV4 struct {
	ID             string   `json:"id"`
	Content        string   `json:"content"`
	Type           CellType `json:"type"`
	SortDir        SortDir  `json:"sortDir"`
	Width          string   `json:"width"`
	IsVisible      bool     `json:"isVisible"`
	FrontmatterKey string   `json:"frontmatterKey,omitempty"`
	Tags           []Tag    `json:"tags"`
}

func (StateV0) SchemaVersion() SchemaVersion { return SchemaV0 }
func (StateV0) isVersionedState()            {}
func (StateV1) SchemaVersion() SchemaVersion { return SchemaV1 }
func (StateV1) isVersionedState()            {}
func (StateV2) SchemaVersion() SchemaVersion { return SchemaV2 }
func (StateV2) isVersionedState()            {}
func (StateV3) SchemaVersion() SchemaVersion { return SchemaV3 }
func (StateV3) isVersionedState()            {}
func (StateV4) SchemaVersion() SchemaVersion { return SchemaV4 }
func (StateV4) isVersionedState()            {}
