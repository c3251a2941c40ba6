package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// SupabaseStorage stores images in a Supabase Storage bucket
type SupabaseStorage struct {
	client *supabase.Client
	bucket string
}

// NewSupabaseStorage creates a Supabase client using the service key
func NewSupabaseStorage(cfg config.StorageConfig) (*SupabaseStorage, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseStorage{client: client, bucket: cfg.Bucket}, nil
}

// Name returns the backend name
func (s *SupabaseStorage) Name() string { return "supabase" }

// Put uploads an object and returns its public URL.
// The storage client has no context support, so ctx is only checked up front.
func (s *SupabaseStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := false
	resp, err := s.client.Storage.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err == nil && resp.Error != "" {
		err = errors.New(resp.Error + ": " + resp.Message)
	}
	metrics.RecordStorageOperation(s.Name(), "put", err)
	if err != nil {
		return "", err
	}
	return s.client.Storage.GetPublicUrl(s.bucket, key).SignedURL, nil
}

// Delete removes an object
func (s *SupabaseStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.Storage.RemoveFile(s.bucket, []string{key})
	metrics.RecordStorageOperation(s.Name(), "delete", err)
	return err
}
