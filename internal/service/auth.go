package service

// AuthService is the business logic layer for accounts and sessions:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It never touches cookies or requests; the handler turns an AuthResult
// into a Set-Cookie header.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// ErrInvalidCredentials is wrapped by every failed password login, whatever
// the reason (unknown user, wrong password, GitHub-only account), so the
// login page cannot be used to probe which usernames exist.
var ErrInvalidCredentials = apperror.Unauthenticated("invalid username or password")

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validator *form.Validator
	recorder  Recorder
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// recorder may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	validator *form.Validator,
	recorder Recorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validator: validator,
		recorder:  orNop(recorder),
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and redirect in one step.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresIn time.Duration
}

// Authenticate checks a username/password pair and issues a session token.
//
// An incomplete form is a validation error (re-render with field messages);
// wrong credentials are ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, f form.LoginForm) (*AuthResult, error) {
	if errs := s.validator.Validate(f, form.LanguagesFromContext(ctx)...); !errs.Valid() {
		return nil, apperror.Invalid(errs)
	}

	user, err := s.users.GetByUsername(ctx, f.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.recorder.Login("password", "failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", f.Username, err)
	}

	if !user.HasPassword() {
		s.recorder.Login("password", "failure")
		return nil, ErrInvalidCredentials
	}

	if err := s.passwords.Verify(user.PasswordHash, f.Password); err != nil {
		s.recorder.Login("password", "failure")
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login failed", slog.String("username", f.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password for %q: %w", f.Username, err)
	}

	s.recorder.Login("password", "success")
	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
// The user is upserted on github_id: first login inserts, later logins
// refresh username and email in case they changed on GitHub. A GitHub login
// that collides with an existing password user's username is a Conflict.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Username: ghUser.Login,
		Email:    ghUser.Email,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		s.recorder.Login("github", "failure")
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.recorder.Login("github", "success")
	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token, ExpiresIn: s.tokens.TTL()}, nil
}

// CreateUser validates f and creates a password account.
// A taken username is apperror.ErrConflict.
func (s *AuthService) CreateUser(ctx context.Context, f form.UserForm) (*model.User, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	if errs := s.validator.Validate(f, form.LanguagesFromContext(ctx)...); !errs.Valid() {
		return nil, apperror.Invalid(errs)
	}

	hash, err := s.passwords.Hash(f.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.Invalid(map[string]string{"password": "password must be 72 bytes or fewer"})
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %q: %w", f.Username, err)
	}

	s.logger.Info("user created",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// GetUserByID returns the user for the given internal ID.
// LoadIdentity calls it on every request carrying a session cookie.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// ListUsers returns every account ordered by username.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// DeleteUser removes the account named username. Its snippets, the
// comments on them and the comments it wrote are removed with it.
func (s *AuthService) DeleteUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("service/auth: deleting user %q: %w", username, err)
	}

	s.logger.Info("user deleted",
		slog.String("userID", user.ID),
		slog.String("username", username),
	)

	return user, nil
}
