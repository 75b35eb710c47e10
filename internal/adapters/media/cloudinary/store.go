package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"petport/internal/ports/media"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

var ErrCloudinaryUpstream = errors.New("cloudinary upstream error")

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Store implementa media.Store sobre la Upload API de Cloudinary.
// Las fotos se suben con transformación eager (800px, calidad/formato auto).
type Store struct {
	uploader *uploader.API
}

var _ media.Store = (*Store)(nil)

const eagerTransform = "q_auto,f_auto,w_800,c_limit"

// NewStore devuelve media.ErrNotConfigured si faltan credenciales.
func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.CloudName) == "" || strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, media.ErrNotConfigured
	}
	c, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(c)
	if err != nil {
		return nil, err
	}
	return &Store{uploader: up}, nil
}

func (s *Store) Upload(ctx context.Context, r io.Reader, folder, name string) (media.Uploaded, error) {
	eagerAsync := false
	res, err := s.uploader.Upload(ctx, r, uploader.UploadParams{
		Folder:     folder,
		PublicID:   name,
		Eager:      eagerTransform,
		EagerAsync: &eagerAsync,
	})
	if err != nil {
		return media.Uploaded{}, fmt.Errorf("%w: %v", ErrCloudinaryUpstream, err)
	}
	if res.Error.Message != "" {
		return media.Uploaded{}, fmt.Errorf("%w: %s", ErrCloudinaryUpstream, res.Error.Message)
	}

	url := res.SecureURL
	if len(res.Eager) > 0 && res.Eager[0].SecureURL != "" {
		url = res.Eager[0].SecureURL
	}
	return media.Uploaded{URL: url, PublicID: res.PublicID}, nil
}

func (s *Store) Delete(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" {
		return nil
	}
	res, err := s.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCloudinaryUpstream, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("%w: %s", ErrCloudinaryUpstream, res.Error.Message)
	}
	// "not found" también cuenta como borrado
	return nil
}
