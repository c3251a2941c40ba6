package dto

// EditAltTextRequest replaces an image's ALT text
type EditAltTextRequest struct {
	AltText string `json:"altText" validate:"required,alttext,max=1000"`
}
