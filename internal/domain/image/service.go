package image

import "context"

// Service defines the image workflow exposed to handlers
type Service interface {
	// Upload validates, stores and describes an image, counting it against the quota
	Upload(ctx context.Context, in UploadInput) (*Image, error)

	// RegenerateAltText asks the describer again, counting it against the quota
	RegenerateAltText(ctx context.Context, userID, id int64) (*Image, error)

	// EditAltText replaces the ALT text by hand
	EditAltText(ctx context.Context, userID, id int64, altText string) (*Image, error)

	Get(ctx context.Context, userID, id int64) (*Image, error)
	List(ctx context.Context, userID int64, filter Filter, limit, offset int) ([]*Image, int64, error)
	Delete(ctx context.Context, userID, id int64) error
}
