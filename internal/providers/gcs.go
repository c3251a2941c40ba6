package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// GCSStorage stores images in a Google Cloud Storage bucket
type GCSStorage struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStorage creates a GCS client. Service account JSON is used when set,
// otherwise application default credentials.
func NewGCSStorage(ctx context.Context, cfg config.StorageConfig) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GCSCredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCSStorage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: gcsPublicBase(cfg),
	}, nil
}

func gcsPublicBase(cfg config.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return "https://storage.googleapis.com/" + cfg.Bucket
}

// Name returns the backend name
func (s *GCSStorage) Name() string { return "gcs" }

// Put uploads an object and returns its public URL
func (s *GCSStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	err := s.put(ctx, key, contentType, data)
	metrics.RecordStorageOperation(s.Name(), "put", err)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

func (s *GCSStorage) put(ctx context.Context, key, contentType string, data []byte) error {
	// Cancelling the writer's context aborts the upload on a failed write
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Delete removes an object. A missing object is not an error.
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		err = nil
	}
	metrics.RecordStorageOperation(s.Name(), "delete", err)
	return err
}

// Close releases the client's connections
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
