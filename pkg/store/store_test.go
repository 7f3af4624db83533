package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/store"
)

const legacyFile = `{"model":{"columns":[{"id":"c1","content":"A","type":"text","sortDir":"default","width":"100px","tags":[]}],"rows":[{"id":"r1","index":0,"cells":[{"id":"x","columnId":"c1","markdown":"hi","tagIds":[]}]}]}}`

func stores(t *testing.T) map[string]store.Store {
	t.Helper()
	return map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"file":   store.FileStore{Root: t.TempDir()},
	}
}

func TestStoreSaveLoadAndETag(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, _, ok, err := s.Load(ctx, "missing.loom"); err != nil || ok {
				t.Fatalf("expected missing file, got ok=%v err=%v", ok, err)
			}

			meta, err := s.Save(ctx, "dir/a.loom", []byte("one"), "")
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if meta.ETag != store.ETag([]byte("one")) {
				t.Fatalf("unexpected etag %q", meta.ETag)
			}

			data, loaded, ok, err := s.Load(ctx, "dir/a.loom")
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if string(data) != "one" || loaded.ETag != meta.ETag {
				t.Fatalf("unexpected load %q %+v", data, loaded)
			}

			if _, err := s.Save(ctx, "dir/a.loom", []byte("two"), "stale"); !errors.Is(err, store.ErrETagMismatch) {
				t.Fatalf("expected etag mismatch, got %v", err)
			}
			if _, err := s.Save(ctx, "dir/a.loom", []byte("two"), meta.ETag); err != nil {
				t.Fatalf("save with matching etag: %v", err)
			}
			data, _, _, _ = s.Load(ctx, "dir/a.loom")
			if string(data) != "two" {
				t.Fatalf("expected updated content, got %q", data)
			}
		})
	}
}

func TestMutateMigratesAndRewrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Save(ctx, "a.loom", []byte(legacyFile), ""); err != nil {
				t.Fatalf("seed: %v", err)
			}

			result, err := store.Mutate(ctx, s, nil, "a.loom", nil)
			if err != nil {
				t.Fatalf("mutate: %v", err)
			}
			if !result.Changed || !result.Report.Migrated() {
				t.Fatalf("expected migration rewrite, got %+v", result)
			}
			data, _, _, _ := s.Load(ctx, "a.loom")
			if !strings.HasPrefix(string(data), "{\n  \"pluginVersion\": ") {
				t.Fatalf("unexpected rewritten text:\n%s", data)
			}

			again, err := store.Mutate(ctx, s, nil, "a.loom", nil)
			if err != nil {
				t.Fatalf("second mutate: %v", err)
			}
			if again.Changed || again.Report.Migrated() {
				t.Fatalf("expected current file to be left alone, got %+v", again)
			}

			edited, err := store.Mutate(ctx, s, nil, "a.loom", func(state *loom.LoomState) error {
				state.Model.Rows[0].Cells[0].Content = "edited"
				return nil
			})
			if err != nil || !edited.Changed {
				t.Fatalf("expected edit to be written, got %+v %v", edited, err)
			}
		})
	}
}

func TestMutateLeavesCurrentFileFormatting(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	current := loom.NewState(1, 1)
	compact := `{"pluginVersion":"8.16.0","model":{"columns":[{"id":"` + current.Model.Columns[0].ID +
		`","content":"","type":"text","sortDir":"default","multiTagSortDir":"default","width":"140px","isVisible":true,"tags":[]}],` +
		`"rows":[],"filters":[],"settings":{"numFrozenColumns":1,"showCalculationRow":true}}}`
	if _, err := s.Save(ctx, "c.loom", []byte(compact), ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := store.Mutate(ctx, s, nil, "c.loom", nil)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if result.Changed {
		t.Fatalf("current file should not be rewritten")
	}
	data, _, _, _ := s.Load(ctx, "c.loom")
	if string(data) != compact {
		t.Fatalf("file bytes changed:\n%s", data)
	}

	host, err := loom.NewEngine(loom.WithCurrentVersion("8.20.0"))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	restamped, err := store.Mutate(ctx, s, host, "c.loom", nil)
	if err != nil || !restamped.Changed {
		t.Fatalf("a newer host release should restamp, got %+v %v", restamped, err)
	}
}

func TestMutateErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	if _, err := store.Mutate(ctx, s, nil, "missing.loom", nil); err == nil {
		t.Fatalf("expected not found error")
	}

	_, _ = s.Save(ctx, "future.loom", []byte(`{"pluginVersion":"99.0.0"}`), "")
	if _, err := store.Mutate(ctx, s, nil, "future.loom", nil); !errors.Is(err, loom.ErrUnsupportedFutureVersion) {
		t.Fatalf("expected future version error, got %v", err)
	}

	_, _ = s.Save(ctx, "a.loom", []byte(legacyFile), "")
	fnErr := errors.New("nope")
	if _, err := store.Mutate(ctx, s, nil, "a.loom", func(*loom.LoomState) error { return fnErr }); !errors.Is(err, fnErr) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	data, _, _, _ := s.Load(ctx, "a.loom")
	if string(data) != legacyFile {
		t.Fatalf("failed mutate must not write")
	}

	if _, err := store.Mutate(ctx, nil, nil, "a.loom", nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestFileStoreAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "abs.loom")
	s := store.FileStore{Root: "/does/not/matter"}
	if _, err := s.Save(context.Background(), full, []byte("x"), ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if data, err := os.ReadFile(full); err != nil || string(data) != "x" {
		t.Fatalf("expected file at absolute path, got %q %v", data, err)
	}
}

func TestMemoryStorePaths(t *testing.T) {
	s := store.NewMemoryStore()
	_, _ = s.Save(context.Background(), "b", nil, "")
	_, _ = s.Save(context.Background(), "a", nil, "")
	if got := strings.Join(s.Paths(), ","); got != "a,b" {
		t.Fatalf("unexpected paths %q", got)
	}
}

func TestFileStoreNewFilesAreWorldReadable(t *testing.T) {
	root := t.TempDir()
	s := store.FileStore{Root: root}
	if _, err := s.Save(context.Background(), "new.loom", []byte("{}"), ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "new.loom"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}
}
