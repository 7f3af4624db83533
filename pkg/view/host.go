package view

import (
	"context"

	loom "github.com/goliatone/go-loom"
)

// ViewType is the view type registered with the host.
const ViewType = "dataloom"

// FileRef is the file a view is bound to.
type FileRef interface {
	Path() string
	Name() string
}

// Renderer paints a loaded table or the diagnostic for a file that could not
// be loaded.
type Renderer interface {
	Render(state loom.LoomState)
	RenderDiagnostic(diag Diagnostic)
}

// Saver asks the host to persist the view's data. Hosts usually debounce.
type Saver interface {
	RequestSave(ctx context.Context, data string) error
}

// SettingsHost opens the host settings screen.
type SettingsHost interface {
	Open()
	OpenTab(id string)
}

// ActionHost adds buttons to the view header. The returned func removes the
// action.
type ActionHost interface {
	AddAction(icon, title string, callback func()) (remove func())
}

// FrontmatterWriter projects a state into a document header. See
// pkg/frontmatter.
type FrontmatterWriter interface {
	WriteFrontmatter(ctx context.Context, state loom.LoomState) error
}

// Host bundles the capabilities a view uses. File, Renderer and Saver are
// required; the rest are optional.
type Host struct {
	File        FileRef
	Renderer    Renderer
	Saver       Saver
	Settings    SettingsHost
	Actions     ActionHost
	Frontmatter FrontmatterWriter
}
