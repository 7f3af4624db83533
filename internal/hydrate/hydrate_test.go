package hydrate

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type column struct {
	ID      string `json:"id"`
	Width   string `json:"width"`
	Visible bool   `json:"isVisible"`
}

type shape struct {
	Columns []column `json:"columns"`
	Created int64    `json:"creationTime"`
}

func TestDecoderCases(t *testing.T) {
	cases := []struct {
		name      string
		input     map[string]any
		options   []DecoderOption[shape]
		expect    shape
		expectErr string
	}{
		{
			name: "plain decode",
			input: map[string]any{
				"columns":      []any{map[string]any{"id": "c1", "width": "140px", "isVisible": true}},
				"creationTime": 1700000000123,
			},
			expect: shape{Columns: []column{{ID: "c1", Width: "140px", Visible: true}}, Created: 1700000000123},
		},
		{
			name:      "type mismatch",
			input:     map[string]any{"columns": "nope"},
			expectErr: "hydrate: decode schema v3",
		},
		{
			name:  "pre hook renames legacy key",
			input: map[string]any{"cols": []any{map[string]any{"id": "c1"}}},
			options: []DecoderOption[shape]{WithPreHook[shape](func(_ Context, payload map[string]any) (map[string]any, error) {
				payload["columns"] = payload["cols"]
				delete(payload, "cols")
				return payload, nil
			})},
			expect: shape{Columns: []column{{ID: "c1"}}},
		},
		{
			name:  "pre hook failure",
			input: map[string]any{"columns": []any{}},
			options: []DecoderOption[shape]{WithPreHook[shape](func(Context, map[string]any) (map[string]any, error) {
				return nil, errors.New("unreadable")
			})},
			expectErr: "pre-hook for schema v3 failed: unreadable",
		},
		{
			name:      "nil payload",
			input:     nil,
			expectErr: "payload is nil",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoder := NewDecoder[shape](tc.options...)
			got, err := decoder.Decode(Context{Schema: 3, Release: "6.8.0"}, tc.input)
			if tc.expectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.expectErr)
				}
				if !strings.Contains(err.Error(), tc.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.expect, got) {
				t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", tc.expect, got)
			}
		})
	}
}

func TestDecodeDoesNotMutatePayload(t *testing.T) {
	payload := map[string]any{"cols": []any{map[string]any{"id": "c1"}}}
	decoder := NewDecoder[shape](WithPreHook[shape](func(_ Context, p map[string]any) (map[string]any, error) {
		p["columns"] = p["cols"]
		delete(p, "cols")
		return p, nil
	}))
	if _, err := decoder.Decode(Context{Path: "a.loom"}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := payload["cols"]; !ok {
		t.Fatalf("expected original payload untouched, got %#v", payload)
	}
	if _, ok := payload["columns"]; ok {
		t.Fatalf("expected original payload untouched, got %#v", payload)
	}
}

func TestContextLabelIncludesPath(t *testing.T) {
	_, err := NewDecoder[shape]().Decode(Context{Path: "notes/tasks.loom", Schema: 1}, map[string]any{"columns": 1})
	if err == nil || !strings.Contains(err.Error(), "notes/tasks.loom (schema v1)") {
		t.Fatalf("expected path in error, got %v", err)
	}
}
