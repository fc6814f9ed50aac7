// Package auth, as part of the authentication module.
// This file, `service.go`, contains the business logic for accounts: registration,
// login, logout, the current user, and the forgot/change password flow.
// Unlike the post service, most outcomes here are returned as field errors inside
// a UserResponse; a Go error means something unexpected broke (database, Redis).
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/mail"
	"github.com/user/redditclone-go/session"
	"github.com/user/redditclone-go/users"
)

// MailQueue accepts outgoing email for asynchronous delivery.
// background.MailDispatcher implements it.
type MailQueue interface {
	Enqueue(ctx context.Context, msg mail.Message) bool
}

// Config holds the knobs of the auth service.
type Config struct {
	FrontendURL   string        // Base URL of the change-password page links
	ResetTokenTTL time.Duration // Lifetime of a password-reset token
	HashCost      int           // bcrypt cost; 0 selects bcrypt.DefaultCost
}

// Service implements the account operations.
type Service struct {
	users    users.Repository
	tokens   TokenStore
	mailer   MailQueue
	cfg      Config
	validate *validator.Validate
	log      logging.Logger
}

// NewService creates a new auth Service.
func NewService(repo users.Repository, tokens TokenStore, mailer MailQueue, cfg Config, log logging.Logger) *Service {
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.ResetTokenTTL == 0 {
		cfg.ResetTokenTTL = 24 * time.Hour
	}
	return &Service{
		users:    repo,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
		validate: validator.New(),
		log:      log,
	}
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates an account and logs it in.
// Nothing is written when validation fails.
func (s *Service) Register(ctx context.Context, sess *session.Session, input RegisterInput) (*UserResponse, error) {
	if errs := validateRegister(s.validate, input); errs != nil {
		return &UserResponse{Errors: errs}, nil
	}

	hashed, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &users.User{
		Username:       input.Username,
		Email:          strings.ToLower(input.Email),
		HashedPassword: hashed,
	})
	switch {
	case errors.Is(err, users.ErrDuplicateUsername):
		return fieldErrors("username", apperror.CodeDuplicateField, msgUsernameTaken), nil
	case errors.Is(err, users.ErrDuplicateEmail):
		return fieldErrors("email", apperror.CodeDuplicateField, msgEmailTaken), nil
	case err != nil:
		return nil, err
	}

	if err := sess.SetUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "userID", user.ID)
	return &UserResponse{User: user}, nil
}

// Login checks the credentials and logs the user in. Input containing an @ is
// treated as an email address, anything else as a username.
func (s *Service) Login(ctx context.Context, sess *session.Session, usernameOrEmail, password string) (*UserResponse, error) {
	var (
		user *users.User
		err  error
	)
	if strings.Contains(usernameOrEmail, "@") {
		user, err = s.users.FindByEmail(ctx, usernameOrEmail)
	} else {
		user, err = s.users.FindByUsername(ctx, usernameOrEmail)
	}
	if err != nil {
		if apperror.IsNotFound(err) {
			return fieldErrors("usernameOrEmail", apperror.CodeNotFound, msgUnknownUser), nil
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fieldErrors("password", apperror.CodeInvalidCredentials, msgBadPassword), nil
		}
		return nil, apperror.NewInternalError("failed to verify password", err)
	}

	if err := sess.SetUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	return &UserResponse{User: user}, nil
}

// Logout destroys the session. It reports false only when the session store
// could not delete it; the cookie is cleared either way.
func (s *Service) Logout(ctx context.Context, sess *session.Session) bool {
	if err := sess.Destroy(ctx); err != nil {
		s.log.Error(ctx, "failed to destroy session", "error", err)
		return false
	}
	return true
}

// Me returns the logged-in user, or nil when nobody is logged in or the
// account no longer exists.
func (s *Service) Me(ctx context.Context, sess *session.Session) (*users.User, error) {
	userID, ok := sess.UserID()
	if !ok {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword emails a reset link when email belongs to an account.
// It always reports true so callers cannot probe which emails are registered;
// failures are logged instead.
func (s *Service) ForgotPassword(ctx context.Context, email string) bool {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !apperror.IsNotFound(err) {
			s.log.Error(ctx, "forgot password: failed to look up user", "error", err)
		}
		return true
	}

	token, err := s.tokens.Issue(ctx, user.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		s.log.Error(ctx, "forgot password: failed to issue token", "userID", user.ID, "error", err)
		return true
	}

	msg, err := mail.ResetPasswordMessage(user.Email, s.ResetLink(token))
	if err != nil {
		s.log.Error(ctx, "forgot password: failed to build email", "userID", user.ID, "error", err)
		return true
	}
	s.mailer.Enqueue(ctx, msg)
	return true
}

// ResetLink is the frontend URL that consumes token.
func (s *Service) ResetLink(token string) string {
	return fmt.Sprintf("%s/change-password/%s", s.cfg.FrontendURL, token)
}

// ChangePassword consumes a reset token, stores the new password and logs the
// user in. A token can be used once.
func (s *Service) ChangePassword(ctx context.Context, sess *session.Session, token, newPassword string) (*UserResponse, error) {
	if errs := validatePassword("newPassword", newPassword); errs != nil {
		return &UserResponse{Errors: errs}, nil
	}

	userID, err := s.tokens.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return fieldErrors("token", apperror.CodeTokenExpired, msgTokenExpired), nil
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return fieldErrors("token", apperror.CodeUserGone, msgUserGone), nil
		}
		return nil, err
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return nil, err
	}
	user.HashedPassword = hashed

	if err := s.tokens.Revoke(ctx, token); err != nil {
		return nil, err
	}

	if err := sess.SetUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "password changed", "userID", user.ID)
	return &UserResponse{User: user}, nil
}
