package service

import (
	"context"

	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/pkg/api"
)

type UserService struct {
	users repositories.UserRepository
	pins  repositories.PinRepository
}

func NewUserService(users repositories.UserRepository, pins repositories.PinRepository) *UserService {
	return &UserService{users: users, pins: pins}
}

// ByID returns a user profile with its relation counts. Signed-in callers
// only.
func (s *UserService) ByID(ctx context.Context, caller *session.Session, id string) (*api.UserProfile, error) {
	if err := requireSession(caller); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.users.CountsForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Profile(counts), nil
}

// Pins returns the user's pins, newest first.
func (s *UserService) Pins(ctx context.Context, userID string) ([]api.Pin, error) {
	pins, err := s.pins.GetPinsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.PinsToAPI(pins), nil
}
