package loom

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a payload could not be turned into a LoomState.
type ErrorKind string

const (
	KindMalformedPayload            ErrorKind = "malformed_payload"
	KindUnsupportedFutureVersion    ErrorKind = "unsupported_future_version"
	KindMigrationStepFailed         ErrorKind = "migration_step_failed"
	KindPostMigrationSchemaMismatch ErrorKind = "post_migration_schema_mismatch"
)

var (
	ErrMalformedPayload            = errors.New("loom: malformed payload")
	ErrUnsupportedFutureVersion    = errors.New("loom: unsupported future version")
	ErrMigrationStepFailed         = errors.New("loom: migration step failed")
	ErrPostMigrationSchemaMismatch = errors.New("loom: post-migration schema mismatch")

	// ErrInvariantViolation marks programming errors such as serializing a
	// state that does not satisfy the current schema. It is never caused by
	// file contents.
	ErrInvariantViolation = errors.New("loom: invariant violation")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMalformedPayload:
		return ErrMalformedPayload
	case KindUnsupportedFutureVersion:
		return ErrUnsupportedFutureVersion
	case KindMigrationStepFailed:
		return ErrMigrationStepFailed
	case KindPostMigrationSchemaMismatch:
		return ErrPostMigrationSchemaMismatch
	default:
		return nil
	}
}

// DeserializationError reports a failed load. Version is the declared release
// token; Step is set for KindMigrationStepFailed.
type DeserializationError struct {
	Kind    ErrorKind
	Version string
	Step    string
	Err     error
}

func (e *DeserializationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	version := e.Version
	if version == "" {
		version = "<legacy>"
	}
	msg := fmt.Sprintf("loom: %s version=%s", e.Kind, version)
	if e.Step != "" {
		msg += fmt.Sprintf(" step=%q", e.Step)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeserializationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *DeserializationError) Is(target error) bool {
	if e == nil {
		return false
	}
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// KindOf returns the kind of the first DeserializationError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var loadErr *DeserializationError
	if errors.As(err, &loadErr) {
		return loadErr.Kind, true
	}
	return "", false
}

func newLoadError(kind ErrorKind, version string, err error) *DeserializationError {
	return &DeserializationError{Kind: kind, Version: version, Err: err}
}
