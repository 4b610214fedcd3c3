package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/security"
	"github.com/username/tradebook/backend/src/utils"
)

type contextKey string

const (
	subjectContextKey   contextKey = "subject"
	requestIDContextKey contextKey = "requestID"

	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware tags each request with an ID, echoes it back and binds
// a request-scoped logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		ctx = logger.WithContext(ctx, logger.L.With("requestID", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware requires a valid bearer token and stores its subject in the
// request context.
func AuthMiddleware(authService *security.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
				utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == "" {
				utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
				return
			}

			subject, err := authService.ValidateToken(tokenString)
			if err != nil {
				logger.FromContext(r.Context()).Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
				utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), subjectContextKey, subject)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("subject", subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	return subject, ok
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
