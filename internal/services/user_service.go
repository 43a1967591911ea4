package services

import (
	"context"
	"errors"
	"time"

	"github.com/intervoice/backend/internal/models"
	pgrepo "github.com/intervoice/backend/internal/repositories/postgres"
	"github.com/intervoice/backend/internal/utils"
)

// IdentityClaims is the subset of identity-provider token claims the backend
// keeps locally.
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type UserService interface {
	// SyncFromClaims creates the local user on first login and refreshes
	// profile attributes from the provider on every later one.
	SyncFromClaims(ctx context.Context, claims IdentityClaims) (*models.User, error)
	GetBySubject(ctx context.Context, subjectID string) (*models.User, error)
}

type userService struct {
	users pgrepo.UserRepository
}

func NewUserService(users pgrepo.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) SyncFromClaims(ctx context.Context, claims IdentityClaims) (*models.User, error) {
	const op = "UserService.SyncFromClaims"

	if claims.Subject == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "token has no subject", nil)
	}

	now := time.Now().UTC()
	u := &models.User{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Picture:     claims.Picture,
		LastLoginAt: &now,
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upsert user", err)
	}

	// Re-read so the caller sees the stable local id on repeat logins.
	stored, err := s.users.GetBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return stored, nil
}

func (s *userService) GetBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	const op = "UserService.GetBySubject"

	if subjectID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "subject_id is required", nil)
	}
	u, err := s.users.GetBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return u, nil
}
