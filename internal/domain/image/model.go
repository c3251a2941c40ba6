package image

import "time"

// ALT text statuses
const (
	AltStatusGenerated = "generated"
	AltStatusFailed    = "failed"
	AltStatusEdited    = "edited"
)

// Image is an uploaded image and its ALT text
type Image struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Filename      string    `json:"filename"`
	StorageKey    string    `json:"-"`
	PublicURL     string    `json:"publicUrl"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	AltText       string    `json:"alt_text"`
	AltTextStatus string    `json:"alt_text_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UploadInput is a file received from a client
type UploadInput struct {
	UserID       int64
	Filename     string
	DeclaredType string
	Data         []byte
	// Width and Height override the decoded dimensions when non-zero
	Width  int
	Height int
}

// Filter narrows List queries
type Filter struct {
	AltTextStatus string
}
