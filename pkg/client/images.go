package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ImageService handles the image library endpoints
type ImageService struct {
	client *Client
}

// UploadOptions carries the optional form fields of an upload
type UploadOptions struct {
	ContentType string // declared MIME type of the file part
	Width       int    // optional override; 0 lets the server decode it
	Height      int
}

// ImageListOptions filters an image listing
type ImageListOptions struct {
	ListOptions
	Status string // generated, failed or edited
}

// Upload sends an image and returns it with its generated ALT text
func (s *ImageService) Upload(ctx context.Context, filename string, data []byte, opts UploadOptions) (*Image, error) {
	fields := map[string]string{}
	if opts.Width > 0 {
		fields["width"] = strconv.Itoa(opts.Width)
	}
	if opts.Height > 0 {
		fields["height"] = strconv.Itoa(opts.Height)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var img Image
	if err := s.client.doUpload(ctx, "/api/v1/images", "file", filename, contentType, data, fields, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// List returns a page of the caller's images, newest first
func (s *ImageService) List(ctx context.Context, opts *ImageListOptions) (*Page[Image], error) {
	path := "/api/v1/images"
	if opts != nil {
		params := url.Values{}
		if opts.Page > 0 {
			params.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			params.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if len(params) > 0 {
			path += "?" + params.Encode()
		}
	}

	var page Page[Image]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single image
func (s *ImageService) Get(ctx context.Context, id int64) (*Image, error) {
	var img Image
	if err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/images/%d", id), nil, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// EditAltText replaces the ALT text with the caller's own wording
func (s *ImageService) EditAltText(ctx context.Context, id int64, altText string) (*Image, error) {
	body := map[string]string{"altText": altText}
	var img Image
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/images/%d", id), body, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// Regenerate asks the model for a fresh ALT text
func (s *ImageService) Regenerate(ctx context.Context, id int64) (*Image, error) {
	var img Image
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/images/%d/alt-text", id), nil, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// Delete removes an image and its stored object
func (s *ImageService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/images/%d", id), nil, nil)
}
