// Package imagecheck validates uploaded images before they are stored.
//
// Checks run in order and stop at the first failure: size and declared type,
// file signature, then decoded dimensions.
package imagecheck

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Dimension bounds in pixels
const (
	MinDimension = 1
	MaxDimension = 10000
)

// Stages, used as metric labels
const (
	StageType      = "type"
	StageSignature = "signature"
	StageDimension = "dimensions"
)

// Result is the outcome of Validate
type Result struct {
	Valid       bool
	Error       string
	Stage       string
	Width       int
	Height      int
	ContentType string
}

var allowedTypes = map[string]string{
	"image/png":  "image/png",
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/webp": "image/webp",
}

// Normalize returns the canonical content type for an allowed type
func Normalize(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	canonical, ok := allowedTypes[ct]
	return canonical, ok
}

// Extension returns the file extension used for stored objects
func Extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// Validate checks data against the declared type and size limit. It never panics.
func Validate(data []byte, declaredType string, maxBytes int64) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = fail(StageDimension, "Could not read image data")
		}
	}()

	if len(data) == 0 {
		return fail(StageType, "File is empty")
	}
	if int64(len(data)) > maxBytes {
		return fail(StageType, TooLarge(maxBytes))
	}
	contentType, ok := Normalize(declaredType)
	if !ok {
		return fail(StageType, fmt.Sprintf("Unsupported file type %q. Allowed types: PNG, JPEG, WEBP", declaredType))
	}

	if !matchesSignature(data, contentType) {
		actual := mimetype.Detect(data)
		return fail(StageSignature, fmt.Sprintf(
			"File content does not match declared type %s (detected %s)", contentType, actual.String()))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fail(StageDimension, "Could not read image dimensions")
	}
	if cfg.Width < MinDimension || cfg.Height < MinDimension ||
		cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return fail(StageDimension, fmt.Sprintf(
			"Image dimensions %dx%d are outside the allowed range %dx%d to %dx%d",
			cfg.Width, cfg.Height, MinDimension, MinDimension, MaxDimension, MaxDimension))
	}

	return Result{
		Valid:       true,
		Width:       cfg.Width,
		Height:      cfg.Height,
		ContentType: contentType,
	}
}

// ValidateFile reads a file from disk and validates it, taking the declared
// type from the file extension
func ValidateFile(path string, maxBytes int64) Result {
	info, err := os.Stat(path)
	if err != nil {
		return fail(StageType, fmt.Sprintf("Cannot read file: %v", err))
	}
	if info.Size() > maxBytes {
		return fail(StageType, TooLarge(maxBytes))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(StageType, fmt.Sprintf("Cannot read file: %v", err))
	}
	return Validate(data, TypeFromExtension(path), maxBytes)
}

// TypeFromExtension maps a file name to its declared image type
func TypeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

// ValidDimension reports whether a client-supplied dimension is in range
func ValidDimension(n int) bool {
	return n >= MinDimension && n <= MaxDimension
}

func matchesSignature(data []byte, contentType string) bool {
	head := data
	if len(head) > 12 {
		head = head[:12]
	}
	switch contentType {
	case "image/png":
		return bytes.HasPrefix(head, []byte{0x89, 0x50, 0x4E, 0x47})
	case "image/jpeg":
		return bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF})
	case "image/webp":
		return len(head) == 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP"))
	}
	return false
}

// TooLarge is the rejection message for files over maxBytes
func TooLarge(maxBytes int64) string {
	return fmt.Sprintf("File is too large. Maximum size is %s", formatMB(maxBytes))
}

func formatMB(n int64) string {
	mb := float64(n) / (1024 * 1024)
	if mb == float64(int64(mb)) {
		return fmt.Sprintf("%dMB", int64(mb))
	}
	return fmt.Sprintf("%.1fMB", mb)
}

func fail(stage, msg string) Result {
	return Result{Valid: false, Error: msg, Stage: stage}
}
