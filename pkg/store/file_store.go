package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileStore reads and writes files on disk, replacing them atomically.
// Relative paths are resolved against Root.
type FileStore struct {
	Root string
}

func (s FileStore) resolve(path string) string {
	if s.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Root, path)
}

func (s FileStore) Load(_ context.Context, path string) ([]byte, Meta, bool, error) {
	full := s.resolve(path)
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("store: read %s: %w", full, err)
	}
	meta := Meta{ETag: ETag(data)}
	if info, err := os.Stat(full); err == nil {
		meta.UpdatedAt = info.ModTime()
	}
	return data, meta, true, nil
}

// Save checks expect against the file on disk and then swaps in the new
// content. The check and the swap are not atomic with respect to other
// processes.
func (s FileStore) Save(ctx context.Context, path string, data []byte, expect string) (Meta, error) {
	full := s.resolve(path)
	if expect != "" {
		_, current, ok, err := s.Load(ctx, path)
		if err != nil {
			return Meta{}, err
		}
		if ok && current.ETag != expect {
			return current, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expect, current.ETag)
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Meta{}, fmt.Errorf("store: mkdir %s: %w", filepath.Dir(full), err)
	}
	_, statErr := os.Stat(full)
	created := errors.Is(statErr, fs.ErrNotExist)
	if err := atomic.WriteFile(full, bytes.NewReader(data)); err != nil {
		return Meta{}, fmt.Errorf("store: write %s: %w", full, err)
	}
	// atomic.WriteFile leaves new files with temp-file permissions.
	if created {
		if err := os.Chmod(full, 0o644); err != nil {
			return Meta{}, fmt.Errorf("store: chmod %s: %w", full, err)
		}
	}
	meta := Meta{ETag: ETag(data)}
	if info, err := os.Stat(full); err == nil {
		meta.UpdatedAt = info.ModTime()
	}
	return meta, nil
}
