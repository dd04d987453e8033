package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/auth"
	"github.com/sakif/rp-forum/internal/model"
	"github.com/sakif/rp-forum/internal/repository"
)

// AccountService handles registration, login, and profile lookup.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAccountService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account and returns it. The password is stored
// only as a bcrypt hash. A duplicate email surfaces as a Conflict.
func (s *AccountService) Register(ctx context.Context, username, email, password, confirmPassword string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Please fill in all fields!")
	}
	if password != confirmPassword {
		return nil, apperror.ValidationFailed("confirm-password", "Passwords do not match!")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", username),
	)

	return user, nil
}

// Login verifies email + password and returns the account on success.
//
// Unknown email and wrong password produce distinct messages, mirroring the
// original application's behaviour. Both map to 401.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Please fill in both fields!")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("Email not registered.")
	}

	// GitHub-only accounts have no password hash; they can't log in this way.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("This account uses GitHub login.")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Wrong password!")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return user, nil
}

// GetProfile returns the account for the given user ID.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// EnsureGitHubUser creates or refreshes the account linked to a GitHub
// profile and returns it. Called from the OAuth callback.
func (s *AccountService) EnsureGitHubUser(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	user := &model.User{
		Username:  gh.Login,
		Email:     gh.Email,
		GitHubID:  gh.ID,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting GitHub user: %w", err)
	}

	s.logger.Info("github user authenticated",
		slog.String("userID", user.ID),
		slog.String("login", gh.Login),
	)

	return user, nil
}
