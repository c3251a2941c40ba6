package middleware

import (
	"net/http"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
)

// Session loads the caller's access session for the duration of the request.
// It must run after AuthMiddleware.
func Session(loader access.Loader, hub *access.Hub, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("User not authenticated"))
				return
			}

			s := access.NewSession(userID, loader, hub)
			defer s.Close()

			if err := s.Load(r.Context()); err != nil {
				if errors.IsNotFound(err) {
					utils.WriteError(w, errors.Unauthorized("Account no longer exists"))
					return
				}
				log.WithFields(map[string]interface{}{"user_id": userID}).ErrorWithErr(err, "Failed to load session")
				utils.WriteServiceError(w, err, "Failed to load session")
				return
			}

			if id, ok := s.Identity(); ok {
				AddLogField(w, "role", id.Role)
			}
			next.ServeHTTP(w, r.WithContext(access.WithSession(r.Context(), s)))
		})
	}
}

// RequirePermission rejects callers whose session lacks p
func RequirePermission(p access.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := access.FromContext(r.Context())
			if !ok {
				utils.WriteError(w, errors.Unauthorized("User not authenticated"))
				return
			}
			if !s.Can(p) {
				utils.WriteError(w, errors.Forbidden("Missing permission "+string(p)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
