package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gritto/gritto/internal/ctxkeys"
	"github.com/gritto/gritto/internal/service"
)

// AuthMiddleware verifies the bearer token and adds the user to the context.
// Users are provisioned on their first authenticated request.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
				return
			}

			identity, err := authService.VerifyJWT(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				slog.Debug("rejected bearer token", "error", err)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			user, err := userService.EnsureUser(r.Context(), identity.UserID, identity.Email)
			if err != nil {
				slog.Warn("failed to resolve authenticated user", "error", err, "user_id", identity.UserID)
				writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
