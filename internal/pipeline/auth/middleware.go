package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	actorContextKey contextKey = "actor"
)

// UserLookup resolves a token subject to its current user row.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor *tracker.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the authenticated actor, or nil for anonymous
// requests.
func ActorFromContext(ctx context.Context) *tracker.Actor {
	actor, _ := ctx.Value(actorContextKey).(*tracker.Actor)
	return actor
}

// HTTPMiddleware authenticates bearer tokens. Public routes pass through
// anonymously when no token is sent; every other route requires a valid token
// whose subject still exists. The role is read from the user row, not from the
// token, so role changes apply immediately.
func HTTPMiddleware(next http.Handler, jwtSecret string, users UserLookup, logger *zap.Logger) http.Handler {
	logger = logger.Named("auth")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			if isPublicRequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString, err := extractTokenFromHeader(header)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		userID, err := subject(claims)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := users.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, e.ErrNotFound) {
				http.Error(w, "unknown user", http.StatusUnauthorized)
				return
			}
			logger.Error("failed to resolve token subject", zap.Error(err), zap.String("user_id", userID.String()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		ctx := WithActor(r.Context(), &tracker.Actor{UserID: user.ID, Role: user.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractTokenFromHeader(header string) (string, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format: empty token")
	}

	return tokenString, nil
}

// isPublicRequest reports whether the route may be called anonymously:
// browsing jobs and applying to one.
func isPublicRequest(r *http.Request) bool {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" || parts[1] != "jobs" {
		return false
	}
	switch r.Method {
	case http.MethodGet:
		// /v1/jobs and /v1/jobs/{id}
		return len(parts) <= 3
	case http.MethodPost:
		// /v1/jobs/{id}/applications
		return len(parts) == 4 && parts[3] == "applications"
	}
	return false
}
