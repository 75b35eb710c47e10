package media

import (
	"context"
	"errors"
	"io"
)

var ErrNotConfigured = errors.New("media store not configured")

type Uploaded struct {
	URL      string
	PublicID string
}

// Store guarda imágenes de la galería fuera de la base.
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder, name string) (Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}
