package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

type resetDetails struct {
	At time.Time `json:"resetsAt"`
}

func (d resetDetails) ResetTime() time.Time { return d.At }

func TestWriteError_RateLimitedSetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.RateLimitedWithDetails("Daily limit reached", resetDetails{At: time.Now().Add(90 * time.Second)}))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	secs, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || secs < 85 || secs > 91 {
		t.Errorf("Retry-After = %q, want about 90", rr.Header().Get("Retry-After"))
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string          `json:"code"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Error.Code != "RATE_LIMITED" || len(body.Error.Details) == 0 {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestWriteError_PastResetStillAsksForOneSecond(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.RateLimitedWithDetails("x", resetDetails{At: time.Now().Add(-time.Minute)}))
	if got := rr.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error passes through", errors.NotFound("Image"), http.StatusNotFound, "NOT_FOUND"},
		{"plain error becomes 500", http.ErrHandlerTimeout, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteServiceError(rr, tt.err, "Something failed")
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if rr.Header().Get("Cache-Control") != "no-store" {
				t.Error("missing Cache-Control: no-store")
			}
		})
	}
}
