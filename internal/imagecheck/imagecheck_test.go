package imagecheck

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// 1x1 lossless WEBP
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func webpBytes(t *testing.T) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(tinyWebP)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return b
}

func TestValidate(t *testing.T) {
	const limit = 5 * 1024 * 1024

	tests := []struct {
		name      string
		data      []byte
		declared  string
		max       int64
		wantValid bool
		wantStage string
		wantMsg   string
		wantW     int
		wantH     int
		wantType  string
	}{
		{name: "png", data: pngBytes(t, 64, 32), declared: "image/png", max: limit, wantValid: true, wantW: 64, wantH: 32, wantType: "image/png"},
		{name: "jpeg", data: jpegBytes(t, 20, 10), declared: "image/jpeg", max: limit, wantValid: true, wantW: 20, wantH: 10, wantType: "image/jpeg"},
		{name: "jpg alias", data: jpegBytes(t, 8, 8), declared: "image/jpg", max: limit, wantValid: true, wantW: 8, wantH: 8, wantType: "image/jpeg"},
		{name: "webp", data: webpBytes(t), declared: "image/webp", max: limit, wantValid: true, wantW: 1, wantH: 1, wantType: "image/webp"},
		{name: "empty", data: nil, declared: "image/png", max: limit, wantStage: StageType, wantMsg: "empty"},
		{name: "too large names limit", data: pngBytes(t, 4, 4), declared: "image/png", max: 10, wantStage: StageType, wantMsg: "Maximum size is"},
		{name: "gif not allowed", data: []byte("GIF89a......"), declared: "image/gif", max: limit, wantStage: StageType, wantMsg: "Unsupported"},
		{name: "text declared as png", data: []byte("hello, this is plain text"), declared: "image/png", max: limit, wantStage: StageSignature, wantMsg: "text/plain"},
		{name: "png declared as jpeg", data: pngBytes(t, 4, 4), declared: "image/jpeg", max: limit, wantStage: StageSignature, wantMsg: "image/png"},
		{name: "fake webp header", data: []byte("RIFF\x00\x00\x00\x00WEBPgarbage"), declared: "image/webp", max: limit, wantStage: StageDimension},
		{name: "truncated png", data: pngBytes(t, 4, 4)[:10], declared: "image/png", max: limit, wantStage: StageDimension},
		{name: "too wide", data: pngBytes(t, 10001, 1), declared: "image/png", max: limit, wantStage: StageDimension, wantMsg: "10001x1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.data, tt.declared, tt.max)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (error %q)", got.Valid, tt.wantValid, got.Error)
			}
			if !tt.wantValid {
				if got.Stage != tt.wantStage {
					t.Errorf("Stage = %s, want %s", got.Stage, tt.wantStage)
				}
				if got.Error == "" {
					t.Error("invalid result without message")
				}
				if tt.wantMsg != "" && !strings.Contains(got.Error, tt.wantMsg) {
					t.Errorf("Error = %q, want it to mention %q", got.Error, tt.wantMsg)
				}
				return
			}
			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, tt.wantW, tt.wantH)
			}
			if got.ContentType != tt.wantType {
				t.Errorf("ContentType = %s, want %s", got.ContentType, tt.wantType)
			}
		})
	}
}

func TestValidate_SizeMessageIsExact(t *testing.T) {
	got := Validate(make([]byte, 6*1024*1024), "image/png", 5*1024*1024)
	if !strings.Contains(got.Error, "5MB") {
		t.Errorf("Error = %q, want the 5MB limit", got.Error)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(good, pngBytes(t, 3, 3), 0o600); err != nil {
		t.Fatal(err)
	}
	if res := ValidateFile(good, 1024*1024); !res.Valid {
		t.Errorf("ValidateFile(good) = %+v", res)
	}

	renamed := filepath.Join(dir, "notes.png")
	if err := os.WriteFile(renamed, []byte("just some notes"), 0o600); err != nil {
		t.Fatal(err)
	}
	if res := ValidateFile(renamed, 1024*1024); res.Valid || res.Stage != StageSignature {
		t.Errorf("ValidateFile(renamed text) = %+v, want signature failure", res)
	}

	if res := ValidateFile(filepath.Join(dir, "missing.png"), 1024); res.Valid {
		t.Error("ValidateFile(missing) reported valid")
	}
}

func TestNormalize(t *testing.T) {
	if ct, ok := Normalize(" Image/JPG ; charset=binary"); !ok || ct != "image/jpeg" {
		t.Errorf("Normalize() = %s, %v", ct, ok)
	}
	if _, ok := Normalize("image/svg+xml"); ok {
		t.Error("svg accepted")
	}
}
