package frontmatter

import (
	"context"
	"fmt"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/store"
)

// StoreWriter applies the projection to the document at Path in Store. A
// missing document is created with just the header.
type StoreWriter struct {
	Store store.Store
	Path  string
}

// WriteFrontmatter implements view.FrontmatterWriter.
func (w StoreWriter) WriteFrontmatter(ctx context.Context, state loom.LoomState) error {
	if w.Store == nil || w.Path == "" {
		return fmt.Errorf("frontmatter: writer needs a store and a path")
	}
	document, meta, _, err := w.Store.Load(ctx, w.Path)
	if err != nil {
		return err
	}
	out, err := Apply(document, state)
	if err != nil {
		return err
	}
	if _, err := w.Store.Save(ctx, w.Path, out, meta.ETag); err != nil {
		return fmt.Errorf("frontmatter: save %s: %w", w.Path, err)
	}
	return nil
}
