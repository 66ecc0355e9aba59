package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewTokenMux serves POST /token, exchanging credentials for a bearer token.
func NewTokenMux(authn Authenticator, secret string, ttl time.Duration, logger *zap.Logger) (*runtime.ServeMux, error) {
	logger = logger.Named("token_issuer")
	mux := runtime.NewServeMux()

	err := mux.HandlePath(http.MethodPost, "/token", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		inbound, outbound := runtime.MarshalerForRequest(mux, r)
		fail := func(err error) {
			runtime.HTTPError(r.Context(), mux, outbound, w, r, err)
		}

		var req TokenRequest
		if err := inbound.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(status.Error(codes.InvalidArgument, "malformed request body"))
			return
		}

		user, err := authn.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, e.ErrUnauthenticated) {
				fail(status.Error(codes.Unauthenticated, "invalid credentials"))
				return
			}
			logger.Error("Failed to authenticate", zap.Error(err))
			fail(status.Error(codes.Internal, "internal server error"))
			return
		}

		token, err := GenerateToken(user, secret, ttl)
		if err != nil {
			logger.Error("Failed to sign token", zap.Error(err))
			fail(status.Error(codes.Internal, "internal server error"))
			return
		}

		resp := &TokenResponse{Token: token, ExpiresAt: time.Now().Add(ttl).UTC()}
		buf, err := outbound.Marshal(resp)
		if err != nil {
			fail(status.Error(codes.Internal, "internal server error"))
			return
		}
		w.Header().Set("Content-Type", outbound.ContentType(resp))
		_, _ = w.Write(buf)
		logger.Info("Token issued", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	})
	if err != nil {
		return nil, err
	}
	return mux, nil
}
