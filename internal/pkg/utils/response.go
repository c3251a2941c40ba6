package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope of every failed response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// resetter is implemented by error details that know when a limit lifts
type resetter interface {
	ResetTime() time.Time
}

// Responses carry per-user data, so nothing is cached by intermediaries.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes data in the success envelope
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// WriteMessage writes a success envelope with only a message
func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, SuccessResponse{Success: true, Message: message})
}

// WriteError writes an AppError. Rate limit errors whose details carry a
// reset time also get a Retry-After header in whole seconds.
func WriteError(w http.ResponseWriter, err *errors.AppError) {
	if err.StatusCode == http.StatusTooManyRequests {
		if r, ok := err.Details.(resetter); ok {
			secs := int(time.Until(r.ResetTime()).Seconds() + 0.5)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
	}
	writeJSON(w, err.StatusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	})
}

// WriteServiceError writes err as an AppError, falling back to a generic 500
func WriteServiceError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := errors.As(err); ok {
		WriteError(w, appErr)
		return
	}
	WriteError(w, errors.Internal(fallback, err))
}

// WriteErrorMessage writes an error envelope without an AppError
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
