package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type CreateUserRequest struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// CreateUser registers an account. Only admins may create users.
func (s *PipelineService) CreateUser(ctx context.Context, actor *tracker.Actor, req CreateUserRequest) (*models.User, error) {
	if err := tracker.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.createUser(ctx, req)
}

// EnsureAdmin creates the bootstrap admin account unless a user with the
// email already exists.
func (s *PipelineService) EnsureAdmin(ctx context.Context, email, password string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	_, err = s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	user, err := s.createUser(ctx, CreateUserRequest{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID.String()))
	return nil
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords both yield ErrUnauthenticated.
func (s *PipelineService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", e.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", e.ErrUnauthenticated)
	}
	return user, nil
}

func (s *PipelineService) createUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", e.ErrInvalidInput, minPasswordLength)
	}
	if req.Role == "" {
		return nil, fmt.Errorf("%w: role is required", e.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
