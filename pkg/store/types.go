// Package store persists loom files by path. Stores report an ETag with each
// load so that a rewrite can detect that the file changed underneath it.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var ErrETagMismatch = errors.New("store: etag mismatch")

// Meta is storage-owned metadata for one file.
type Meta struct {
	ETag      string    `json:"etag,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Store loads and saves whole files. Save with a non-empty expect ETag fails
// with ErrETagMismatch when the stored file has a different ETag.
type Store interface {
	Load(ctx context.Context, path string) (data []byte, meta Meta, ok bool, err error)
	Save(ctx context.Context, path string, data []byte, expect string) (Meta, error)
}

// ETag returns the content tag stores use for data.
func ETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
