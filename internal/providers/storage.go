package providers

import (
	"context"
	"fmt"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/image"
)

// NewStorage returns the configured object storage backend
func NewStorage(ctx context.Context, cfg config.StorageConfig) (image.Storage, error) {
	switch cfg.Backend {
	case "s3":
		s, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "gcs":
		s, err := NewGCSStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "supabase":
		s, err := NewSupabaseStorage(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
