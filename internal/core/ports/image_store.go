package ports

import (
	"context"
	"io"
)

// ImageRemover deletes a stored image by reference. A missing image is not an
// error.
type ImageRemover interface {
	Delete(ctx context.Context, ref string) error
}

// ImageStore persists uploaded product images and hands back an opaque
// reference that is later served as a static file.
type ImageStore interface {
	Save(ctx context.Context, originalName string, size int64, src io.Reader) (string, error)
	ImageRemover
}
