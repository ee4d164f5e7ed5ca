package auth

import (
	"context"
	"net/http"
	"strings"

	"tutor-app/internal/api/response"
	"tutor-app/internal/logger"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// WithUserID returns a context carrying the caller's id
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserIDFromContext returns the caller's id set by Identity
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

// Identity resolves the caller. A valid bearer token selects its user; a
// request without one acts as the default user unless auth is required.
func (s *Service) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if s.required {
				response.Error(w, http.StatusUnauthorized, "Missing authorization header", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), s.defaultUserID)))
			return
		}

		bearerToken := strings.SplitN(authHeader, " ", 2)
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" || bearerToken[1] == "" {
			response.Error(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := s.ValidateToken(bearerToken[1])
		if err != nil {
			logger.Log.WithError(err).Debug("Rejected token")
			response.Error(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}
