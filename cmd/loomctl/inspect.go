package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/store"
	"github.com/goliatone/go-loom/pkg/view"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the declared release and pending steps of a loom file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args[0])
		},
	}
}

func (a *app) runInspect(cmd *cobra.Command, path string) error {
	data, _, ok, err := store.FileStore{}.Load(cmd.Context(), path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: not found", path)
	}

	out := a.stdout
	fmt.Fprintf(out, "file:     %s\n", path)

	_, declared, err := loom.ParsePayload(data)
	if err != nil {
		writeDiagnostic(out, view.DiagnosticFrom(err))
		return fmt.Errorf("%s could not be loaded", path)
	}
	fmt.Fprintf(out, "declared: %s\n", releaseLabel(declared))

	state, report, err := a.engine.DeserializeWithReport(data)
	if err != nil {
		writeDiagnostic(out, view.DiagnosticFrom(err))
		return fmt.Errorf("%s could not be loaded", path)
	}
	pending := "none"
	if report.Migrated() {
		pending = strings.Join(report.Steps, ", ")
	}
	fmt.Fprintf(out, "schema:   %s\n", report.From)
	fmt.Fprintf(out, "pending:  %s\n", pending)
	fmt.Fprintf(out, "columns:  %d\n", len(state.Model.Columns))
	fmt.Fprintf(out, "rows:     %d\n", len(state.Model.Rows))
	fmt.Fprintf(out, "filters:  %d\n", len(state.Model.Filters))
	return nil
}

func writeDiagnostic(out io.Writer, diag view.Diagnostic) {
	fmt.Fprintf(out, "error:    %s\n", diag.Title())
	fmt.Fprintf(out, "kind:     %s\n", diag.Kind)
	if diag.Step != "" {
		fmt.Fprintf(out, "step:     %s\n", diag.Step)
	}
	if diag.Message != "" {
		fmt.Fprintf(out, "detail:   %s\n", diag.Message)
	}
}
