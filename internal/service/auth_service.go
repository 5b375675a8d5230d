package service

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/identity"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/pkg/api"
)

// AuthService bridges the external identity provider to local users and
// session tokens.
type AuthService struct {
	provider identity.Provider
	users    repositories.UserRepository
	sessions *session.Manager
	log      *slog.Logger
}

func NewAuthService(provider identity.Provider, users repositories.UserRepository, sessions *session.Manager, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{provider: provider, users: users, sessions: sessions, log: log}
}

// SignIn validates the credentials with the provider, resolves or creates
// the local user and issues a session. A provider rejection ends the
// attempt with UNAUTHORIZED; a provider outage is UPSTREAM.
func (s *AuthService) SignIn(ctx context.Context, in api.SignInInput) (*api.SignInResult, error) {
	ident, err := s.provider.Authenticate(ctx, identity.Credentials{
		Username: in.Username,
		Password: in.Password,
		IDToken:  in.IDToken,
	})
	if err != nil {
		if errors.Is(err, identity.ErrRejected) {
			s.log.InfoContext(ctx, "sign-in rejected", "username", in.Username)
			return nil, domainerrors.Unauthorized("invalid credentials")
		}
		s.log.ErrorContext(ctx, "identity provider failed", "error", err)
		return nil, domainerrors.Upstream(err, "identity provider unavailable")
	}

	user, created, err := s.users.FindOrCreateUser(ctx, &models.User{
		ExternalID:  ident.Subject,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "resolve local user failed", "subject", ident.Subject, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeOf(err), "could not resolve local user")
	}
	if created {
		s.log.InfoContext(ctx, "user created", "user_id", user.ID)
	}

	sess := &session.Session{
		UserID:       user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         user.Role,
		AccessToken:  ident.AccessToken,
		RefreshToken: ident.RefreshToken,
	}
	token, err := s.sessions.Issue(sess)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "could not issue session")
	}

	return &api.SignInResult{Token: token, Session: *sess.ToAPI()}, nil
}

// GetSession returns the caller's session, or nil when anonymous.
func (s *AuthService) GetSession(caller *session.Session) *api.Session {
	return caller.ToAPI()
}

// Authenticate resolves a session token. Invalid and expired tokens are
// UNAUTHORIZED.
func (s *AuthService) Authenticate(token string) (*session.Session, error) {
	sess, err := s.sessions.Parse(token)
	if err != nil {
		if errors.Is(err, session.ErrExpiredToken) {
			return nil, domainerrors.Unauthorized("session expired").WithCause(err)
		}
		return nil, domainerrors.Unauthorized("invalid session").WithCause(err)
	}
	return sess, nil
}

// SessionTTL is the lifetime of issued sessions.
func (s *AuthService) SessionTTL() int {
	return int(s.sessions.TTL().Seconds())
}
