package loom

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	engine := mustEngine(t)
	fixtures := []string{"v0_legacy.json", "v1_6.0.0.json", "v2_6.1.0.json", "v3_6.8.0.json", "v4_8.0.0.json", "current_8.16.0.json"}
	for _, name := range fixtures {
		t.Run(name, func(t *testing.T) {
			state, _ := mustDeserialize(t, engine, loadFixture(t, name))

			out, err := engine.Serialize(state)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			again, report := mustDeserialize(t, engine, out)
			if report.Migrated() {
				t.Fatalf("serialized output needed migration: %v", report.Steps)
			}
			if !reflect.DeepEqual(state, again) {
				t.Fatalf("round trip differs:\n%s\n%s", dump(state), dump(again))
			}
			second, err := engine.Serialize(again)
			if err != nil {
				t.Fatalf("serialize again: %v", err)
			}
			if string(second) != string(out) {
				t.Fatalf("serialization is not deterministic")
			}
		})
	}
}

func TestSerializeLayout(t *testing.T) {
	engine := mustEngine(t)
	state, _ := mustDeserialize(t, engine, loadFixture(t, "current_8.16.0.json"))
	out, err := engine.Serialize(state)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	text := string(out)
	if !strings.HasPrefix(text, "{\n  \"pluginVersion\": \"8.16.0\",\n  \"model\": {\n    \"columns\": [") {
		t.Fatalf("unexpected layout:\n%s", text)
	}
	if strings.HasSuffix(text, "\n") {
		t.Fatalf("expected no trailing newline")
	}
	if !strings.Contains(text, `"a <b> & c"`) {
		t.Fatalf("expected html characters unescaped:\n%s", text)
	}
	if strings.Contains(text, "frontmatterKey") {
		t.Fatalf("empty frontmatterKey should be omitted")
	}
}

func TestSerializeStampsEngineVersion(t *testing.T) {
	engine := mustEngine(t, WithCurrentVersion("9.1.0"))
	state := NewState(1, 1)
	state.PluginVersion = "1.0.0"
	out, err := engine.Serialize(state)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(out), `"pluginVersion": "9.1.0"`) {
		t.Fatalf("expected engine version stamp:\n%s", out)
	}
	if state.PluginVersion != "1.0.0" {
		t.Fatalf("serialize mutated its input")
	}
}

func TestSerializeInvalidStateIsInvariantViolation(t *testing.T) {
	state := NewState(1, 1)
	state.Model.Rows[0].Cells[0].ColumnID = "missing"
	_, err := DefaultEngine().Serialize(state)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation detail, got %v", err)
	}
	if _, isLoad := KindOf(err); isLoad {
		t.Fatalf("serializer errors are not load errors")
	}
}

func TestParsePayloadMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `not json`,
		"array":          `[1, 2]`,
		"string":         `"text"`,
		"null":           `null`,
		"trailing":       `{"model": {}} {}`,
		"numeric marker": `{"pluginVersion": 6}`,
		"null marker":    `{"pluginVersion": null}`,
		"empty marker":   `{"pluginVersion": ""}`,
		"empty":          ``,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParsePayload([]byte(text))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected malformed payload, got %v", err)
			}
		})
	}
}

func TestParsePayloadMarker(t *testing.T) {
	raw, declared, err := ParsePayload([]byte(`{"model": {"rows": [{"creationTime": 12}]}}` + "\n\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if declared != "" {
		t.Fatalf("expected legacy marker, got %q", declared)
	}
	if _, ok := raw["model"].(map[string]any); !ok {
		t.Fatalf("unexpected raw %s", dump(raw))
	}

	_, declared, err = ParsePayload(loadFixture(t, "v2_6.1.0.json"))
	if err != nil || declared != "6.1.0" {
		t.Fatalf("unexpected marker %q, %v", declared, err)
	}
}

func TestDeserializeMalformedMarkers(t *testing.T) {
	engine := mustEngine(t)
	for _, text := range []string{`{"pluginVersion": "6"}`, `{"pluginVersion": "six"}`, `{"pluginVersion": 8.16}`} {
		_, err := engine.Deserialize([]byte(text))
		if !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("%s: expected malformed payload, got %v", text, err)
		}
	}
}

func TestPackageLevelHelpers(t *testing.T) {
	text := string(loadFixture(t, "v0_legacy.json"))
	state, err := DeserializeState(text, "")
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	out, err := SerializeState(state)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	again, err := DeserializeState(out, "8.16.0")
	if err != nil {
		t.Fatalf("deserialize again: %v", err)
	}
	if !reflect.DeepEqual(state, again) {
		t.Fatalf("package round trip differs")
	}

	hosted, err := DeserializeState(text, "10.0.0")
	if err != nil {
		t.Fatalf("deserialize with host version: %v", err)
	}
	if hosted.PluginVersion != "10.0.0" {
		t.Fatalf("expected host stamp, got %q", hosted.PluginVersion)
	}
	restamped, err := SerializeState(hosted)
	if err != nil {
		t.Fatalf("serialize hosted: %v", err)
	}
	if !strings.Contains(restamped, `"pluginVersion": "8.16.0"`) {
		t.Fatalf("expected latest stamp:\n%s", restamped)
	}

	if _, err := DeserializeState(text, "1.0.0"); err == nil {
		t.Fatalf("expected error for host older than the schema")
	}

	old := NewState(1, 0)
	old.PluginVersion = "6.0.0"
	stamped, err := SerializeState(old)
	if err != nil {
		t.Fatalf("serialize old: %v", err)
	}
	if !strings.Contains(stamped, `"pluginVersion": "8.16.0"`) {
		t.Fatalf("expected latest stamp:\n%s", stamped)
	}
}

func TestSerializeStateOpensWithDefaultBoundary(t *testing.T) {
	state := NewState(2, 2)
	state.PluginVersion = "9.0.0"

	text, err := SerializeState(state)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	back, err := DeserializeState(text, "")
	if err != nil {
		t.Fatalf("text written by SerializeState must load: %v", err)
	}
	state.PluginVersion = DefaultEngine().CurrentVersion()
	if !reflect.DeepEqual(state, back) {
		t.Fatalf("round trip differs:\n%s\n%s", dump(state), dump(back))
	}
}
