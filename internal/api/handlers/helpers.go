package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

// decodeAndValidate reads a JSON body into v and runs struct validation.
// It writes the error response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, val *validator.Validator, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}
	if val != nil {
		if errs := val.Validate(v); len(errs) > 0 {
			utils.WriteError(w, errors.ValidationError("Validation failed", errs))
			return false
		}
	}
	return true
}

// requireUser returns the authenticated user ID or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return 0, false
	}
	return userID, true
}

// idParam parses a positive integer URL parameter or writes a 400
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, errors.BadRequest("Invalid "+name))
		return 0, false
	}
	return id, true
}
