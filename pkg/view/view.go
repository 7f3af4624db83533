// Package view is the host-facing shell around one open loom file. It loads
// the file text into a LoomState, renders it, writes it back on save and
// keeps sibling views of the same file current through pkg/viewsync.
package view

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/activity"
	"github.com/goliatone/go-loom/pkg/viewsync"
)

// Config holds the collaborators shared by every view of one host.
type Config struct {
	// PluginID is the settings tab opened by the settings action.
	PluginID string
	Sync     *viewsync.Context
	Engine   *loom.Engine
	Emitter  *activity.Emitter
	Logger   *slog.Logger
	ActorID  string
}

// View is one open loom file. All methods are safe for concurrent use.
type View struct {
	id   viewsync.ViewID
	host Host
	cfg  Config

	mu      sync.Mutex
	data    string
	state   *loom.LoomState
	diag    *Diagnostic
	scope   *Scope
	sub     *viewsync.Subscription
	subPath string
}

// New creates a closed view bound to host. Missing Sync and Engine fall back
// to a private context and the default engine.
func New(host Host, cfg Config) *View {
	if cfg.Sync == nil {
		cfg.Sync = viewsync.NewContext()
	}
	if cfg.Engine == nil {
		cfg.Engine = loom.DefaultEngine()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &View{
		id:   viewsync.ViewID(uuid.NewString()),
		host: host,
		cfg:  cfg,
	}
}

// ID returns the view's identity in broadcasts.
func (v *View) ID() viewsync.ViewID { return v.id }

// ViewType returns ViewType.
func (v *View) ViewType() string { return ViewType }

// DisplayText is the file name without its extension.
func (v *View) DisplayText() string {
	if v.host.File == nil {
		return ""
	}
	name := v.host.File.Name()
	return strings.TrimSuffix(name, path.Ext(name))
}

// OnOpen acquires the view's resources. Calling it on an open view does
// nothing.
func (v *View) OnOpen(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scope != nil {
		return nil
	}
	v.scope = &Scope{}
	if v.host.Actions != nil {
		v.scope.Acquire(v.host.Actions.AddAction("settings", "Settings", v.openSettings))
	}
	if v.host.File != nil {
		v.subscribeLocked(v.host.File.Path())
	}
	return nil
}

// OnClose releases everything OnOpen and later loads acquired.
func (v *View) OnClose(_ context.Context) error {
	v.mu.Lock()
	scope := v.scope
	v.scope = nil
	v.sub = nil
	v.subPath = ""
	v.mu.Unlock()

	if scope != nil {
		scope.Close()
	}
	return nil
}

// Open reports whether OnOpen ran without a matching OnClose.
func (v *View) Open() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scope != nil
}

// SetViewData replaces the raw file text. With clear set the text is loaded
// and rendered; a load failure renders a diagnostic instead.
func (v *View) SetViewData(data string, clear bool) {
	v.mu.Lock()
	v.data = data
	if !clear {
		v.mu.Unlock()
		return
	}
	if v.host.File != nil && v.scope != nil {
		v.subscribeLocked(v.host.File.Path())
	}
	v.mu.Unlock()

	state, report, err := v.cfg.Engine.DeserializeWithReport([]byte(data))
	if err != nil {
		diag := DiagnosticFrom(err)
		v.mu.Lock()
		v.state = nil
		v.diag = &diag
		v.mu.Unlock()

		kind, _ := loom.KindOf(err)
		v.cfg.Logger.Warn("loom load failed", "path", v.filePath(), "kind", string(kind), "error", err)
		v.emit(activity.BuildMigrationEvent(activity.MigrationInput{
			EventInput: v.eventInput(""),
			Declared:   report.Declared,
			Steps:      report.Steps,
			Kind:       string(kind),
			Err:        err,
		}))
		if v.host.Renderer != nil {
			v.host.Renderer.RenderDiagnostic(diag)
		}
		return
	}

	v.mu.Lock()
	v.state = &state
	v.diag = nil
	v.mu.Unlock()

	if report.Migrated() {
		v.emit(activity.BuildMigrationEvent(activity.MigrationInput{
			EventInput: v.eventInput(state.PluginVersion),
			Declared:   report.Declared,
			Steps:      report.Steps,
		}))
	}
	if v.host.Renderer != nil {
		v.host.Renderer.Render(state.Clone())
	}
}

// ViewData returns the raw file text the host should persist.
func (v *View) ViewData() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}

// Clear resets the view to an empty document.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data = "{}"
	v.state = nil
	v.diag = nil
}

// State returns a copy of the loaded state.
func (v *View) State() (loom.LoomState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == nil {
		return loom.LoomState{}, false
	}
	return v.state.Clone(), true
}

// Diagnostic returns the diagnostic of the last failed load.
func (v *View) Diagnostic() (Diagnostic, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.diag == nil {
		return Diagnostic{}, false
	}
	return *v.diag, true
}

// Save writes state back to the file and refreshes every sibling view.
// Frontmatter projection is best effort. Sibling failures are logged and do
// not fail the save.
func (v *View) Save(ctx context.Context, state loom.LoomState, saveFrontmatter bool) error {
	if v.host.File == nil {
		return nil
	}
	if v.host.Saver == nil {
		return errors.New("view: host has no saver")
	}
	filePath := v.host.File.Path()

	if saveFrontmatter && v.host.Frontmatter != nil {
		if err := v.host.Frontmatter.WriteFrontmatter(ctx, state); err != nil {
			v.cfg.Logger.Warn("loom frontmatter failed", "path", filePath, "error", err)
		}
	}

	data, err := v.cfg.Engine.Serialize(state)
	if err != nil {
		return err
	}
	saved := state.Clone()
	saved.PluginVersion = v.cfg.Engine.CurrentVersion()

	// The record is in place while the host writes so change events raised
	// by that write name this view. A failed write restores it and leaves
	// local state as it was.
	lastSaved := v.cfg.Sync.LastSaved()
	previous, hadPrevious := lastSaved.Get(filePath)
	lastSaved.Set(filePath, v.id)
	if err := v.host.Saver.RequestSave(ctx, string(data)); err != nil {
		if hadPrevious {
			lastSaved.Set(filePath, previous)
		} else {
			lastSaved.Forget(filePath)
		}
		return err
	}

	v.mu.Lock()
	v.data = string(data)
	v.state = &saved
	v.diag = nil
	v.mu.Unlock()

	if err := v.cfg.Sync.Saved(filePath, v.id, saved); err != nil {
		v.cfg.Logger.Warn("loom sibling refresh failed", "path", filePath, "error", err)
	}
	v.emit(activity.BuildSavedEvent(v.eventInput(saved.PluginVersion)))
	return nil
}

// apply handles a save made by a sibling view of the same file.
func (v *View) apply(n viewsync.ChangeNotification) error {
	data, err := v.cfg.Engine.Serialize(n.State)
	if err != nil {
		return err
	}
	state := n.State

	v.mu.Lock()
	v.data = string(data)
	v.state = &state
	v.diag = nil
	v.mu.Unlock()

	v.emit(activity.BuildRefreshedEvent(v.eventInput(state.PluginVersion)))
	if v.host.Renderer != nil {
		v.host.Renderer.Render(state.Clone())
	}
	return nil
}

func (v *View) subscribeLocked(filePath string) {
	if v.sub != nil && v.subPath == filePath {
		return
	}
	if v.sub != nil {
		v.sub.Close()
	}
	sub := v.cfg.Sync.Subscribe(filePath, v.id, v.apply)
	v.sub = sub
	v.subPath = filePath
	v.scope.Acquire(sub.Close)
}

func (v *View) openSettings() {
	if v.host.Settings == nil {
		return
	}
	v.host.Settings.Open()
	v.host.Settings.OpenTab(v.cfg.PluginID)
}

func (v *View) filePath() string {
	if v.host.File == nil {
		return ""
	}
	return v.host.File.Path()
}

func (v *View) eventInput(version string) activity.EventInput {
	return activity.EventInput{
		ActorID: v.cfg.ActorID,
		Path:    v.filePath(),
		ViewID:  string(v.id),
		Version: version,
	}
}

func (v *View) emit(event activity.Event) {
	if err := v.cfg.Emitter.Emit(context.Background(), event); err != nil {
		v.cfg.Logger.Warn("loom activity failed", "verb", event.Verb, "error", err)
	}
}
