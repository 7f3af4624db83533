package loom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

func mustEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func mustDeserialize(t *testing.T, engine *Engine, data []byte) (LoomState, Report) {
	t.Helper()
	state, report, err := engine.DeserializeWithReport(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	return state, report
}

func dump(v any) string {
	return spew.Sdump(v)
}
