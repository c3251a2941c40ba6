package image

import "context"

// Repository defines data access for images
type Repository interface {
	Create(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, userID, id int64) (*Image, error)
	List(ctx context.Context, userID int64, filter Filter, limit, offset int) ([]*Image, int64, error)
	UpdateAltText(ctx context.Context, userID, id int64, altText, status string) error
	Delete(ctx context.Context, userID, id int64) error
}

// Storage stores image blobs and returns a public URL for them
type Storage interface {
	Name() string
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Describer generates descriptive text for a publicly reachable image
type Describer interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}
