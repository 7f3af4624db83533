package activity

import (
	"strings"
	"time"
)

const (
	VerbSaved           = "loom.saved"
	VerbRefreshed       = "loom.refreshed"
	VerbMigrated        = "loom.migrated"
	VerbMigrationFailed = "loom.migration_failed"
)

// EventInput holds the fields shared by every loom event.
type EventInput struct {
	ActorID    string
	Path       string
	ViewID     string
	Channel    string
	Version    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// MigrationInput extends EventInput with the outcome of a load.
type MigrationInput struct {
	EventInput
	Declared string
	Steps    []string
	Kind     string
	Err      error
}

// BuildSavedEvent describes a view writing its state back to the file.
func BuildSavedEvent(input EventInput) Event {
	return buildEvent(VerbSaved, input)
}

// BuildRefreshedEvent describes a view replacing its state after a sibling
// saved the same file.
func BuildRefreshedEvent(input EventInput) Event {
	return buildEvent(VerbRefreshed, input)
}

// BuildMigrationEvent returns loom.migration_failed when input carries an
// error and loom.migrated otherwise.
func BuildMigrationEvent(input MigrationInput) Event {
	verb := VerbMigrated
	if input.Err != nil {
		verb = VerbMigrationFailed
	}
	event := buildEvent(verb, input.EventInput)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["declared"] = input.Declared
	if len(input.Steps) > 0 {
		event.Metadata["steps"] = append([]string{}, input.Steps...)
	}
	if input.Kind != "" {
		event.Metadata["kind"] = input.Kind
	}
	if input.Err != nil {
		event.Metadata["error"] = input.Err.Error()
	}
	return event
}

func buildEvent(verb string, input EventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Version != "" {
		metadata = ensureMetadata(metadata)
		metadata["version"] = input.Version
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: ObjectType,
		ObjectID:   strings.TrimSpace(input.Path),
		ViewID:     strings.TrimSpace(input.ViewID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
