package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubAuthenticator struct {
	user *models.User
	err  error
}

func (s stubAuthenticator) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if email != s.user.Email || password != "correct-horse" {
		return nil, e.ErrUnauthenticated
	}
	return s.user, nil
}

func TestNewTokenMux(t *testing.T) {
	hr := &models.User{ID: uuid.New(), Email: "hr@example.com", Role: models.RoleHRManager}

	tests := []struct {
		name       string
		authn      Authenticator
		body       string
		wantStatus int
	}{
		{"valid credentials", stubAuthenticator{user: hr}, `{"email":"hr@example.com","password":"correct-horse"}`, http.StatusOK},
		{"wrong password", stubAuthenticator{user: hr}, `{"email":"hr@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"malformed body", stubAuthenticator{user: hr}, `{"email":`, http.StatusBadRequest},
		{"store failure", stubAuthenticator{err: errors.New("db down")}, `{"email":"hr@example.com","password":"x"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, err := NewTokenMux(tt.authn, testSecret, time.Hour, zaptest.NewLogger(t))
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp TokenResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			claims, err := validateToken(resp.Token, testSecret)
			require.NoError(t, err)
			id, err := subject(claims)
			require.NoError(t, err)
			assert.Equal(t, hr.ID, id)
			assert.Equal(t, string(models.RoleHRManager), claims["role"])
		})
	}
}
