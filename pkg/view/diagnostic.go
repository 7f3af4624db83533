package view

import (
	"errors"

	loom "github.com/goliatone/go-loom"
)

// Diagnostic is shown in place of the table when a file cannot be loaded.
type Diagnostic struct {
	Kind    loom.ErrorKind
	Version string
	Step    string
	Message string
}

// Title is a one-line summary suitable for a heading.
func (d Diagnostic) Title() string {
	switch d.Kind {
	case loom.KindUnsupportedFutureVersion:
		return "This loom was saved by a newer version. Update to open it."
	case loom.KindMigrationStepFailed:
		return "This loom could not be upgraded."
	case loom.KindPostMigrationSchemaMismatch:
		return "This loom does not match the expected format."
	default:
		return "This loom could not be read."
	}
}

// DiagnosticFrom builds the diagnostic for a load error.
func DiagnosticFrom(err error) Diagnostic {
	var loadErr *loom.DeserializationError
	if errors.As(err, &loadErr) {
		diag := Diagnostic{Kind: loadErr.Kind, Version: loadErr.Version, Step: loadErr.Step}
		if loadErr.Err != nil {
			diag.Message = loadErr.Err.Error()
		}
		return diag
	}
	diag := Diagnostic{Kind: loom.KindMalformedPayload}
	if err != nil {
		diag.Message = err.Error()
	}
	return diag
}
