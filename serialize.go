package loom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParsePayload decodes text into a raw object and returns the declared
// release marker. A missing marker yields "".
func ParsePayload(text []byte) (map[string]any, string, error) {
	decoder := json.NewDecoder(bytes.NewReader(text))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, "", newLoadError(KindMalformedPayload, "", fmt.Errorf("parse: %w", err))
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, "", newLoadError(KindMalformedPayload, "", errors.New("parse: trailing data after object"))
	}

	raw, ok := value.(map[string]any)
	if !ok {
		return nil, "", newLoadError(KindMalformedPayload, "", fmt.Errorf("parse: top level is %s, want object", jsonKind(value)))
	}

	marker, present := raw[VersionField]
	if !present {
		return raw, "", nil
	}
	declared, ok := marker.(string)
	if !ok {
		return nil, "", newLoadError(KindMalformedPayload, "", fmt.Errorf("%s is %s, want string", VersionField, jsonKind(marker)))
	}
	if strings.TrimSpace(declared) == "" {
		return nil, "", newLoadError(KindMalformedPayload, declared, fmt.Errorf("%s is empty", VersionField))
	}
	return raw, declared, nil
}

// Deserialize parses text and migrates it to LoomState.
func (e *Engine) Deserialize(text []byte) (LoomState, error) {
	state, _, err := e.DeserializeWithReport(text)
	return state, err
}

// DeserializeWithReport is Deserialize plus the migration report.
func (e *Engine) DeserializeWithReport(text []byte) (LoomState, Report, error) {
	raw, declared, err := ParsePayload(text)
	if err != nil {
		return LoomState{}, Report{To: CurrentSchema}, err
	}
	return e.MigrateWithReport(raw, declared)
}

// Serialize stamps state with the engine's current version and encodes it as
// two-space indented JSON. A state that fails validation is a programming
// error and returns an error wrapping ErrInvariantViolation.
func (e *Engine) Serialize(state LoomState) ([]byte, error) {
	return e.encode(state, e.current)
}

func (e *Engine) encode(state LoomState, version string) ([]byte, error) {
	out := state.Clone()
	out.PluginVersion = version
	if err := e.validator.Validate(out); err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrInvariantViolation, err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrInvariantViolation, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeserializeState loads text for a host running hostVersion. An empty
// hostVersion uses the latest schema release.
func DeserializeState(text, hostVersion string) (LoomState, error) {
	engine := DefaultEngine()
	if strings.TrimSpace(hostVersion) != "" && trimRelease(hostVersion) != engine.CurrentVersion() {
		var err error
		engine, err = NewEngine(WithCurrentVersion(hostVersion))
		if err != nil {
			return LoomState{}, err
		}
	}
	return engine.Deserialize([]byte(text))
}

// SerializeState encodes state with the default engine, always stamping the
// latest schema release. Hosts running a newer release serialize through an
// Engine built WithCurrentVersion.
func SerializeState(state LoomState) (string, error) {
	data, err := DefaultEngine().Serialize(state)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
