package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"microblog/internal/auth"
	"microblog/internal/mail"
	"microblog/internal/middleware"
	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/validation"
)

// PasswordConfig holds the settings used to build reset mails.
type PasswordConfig struct {
	Sender   string
	BaseURL  string
	TokenTTL time.Duration
}

type ResetPasswordInput struct {
	Token     string `json:"-"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

// PasswordService implements the reset-by-email flow.
type PasswordService struct {
	userRepo repository.UserRepository
	tokens   *auth.Tokens
	mailer   mail.Mailer
	cfg      PasswordConfig
}

func NewPasswordService(userRepo repository.UserRepository, tokens *auth.Tokens, mailer mail.Mailer, cfg PasswordConfig) *PasswordService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Minute
	}
	return &PasswordService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// RequestReset mails a reset link to the owner of email. Unknown addresses
// succeed silently so the endpoint cannot be used to discover accounts.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		middleware.Logger.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}

	token, err := s.tokens.IssueReset(user.ID, s.cfg.TokenTTL)
	if err != nil {
		return models.NewInternalError(err)
	}

	msg, err := mail.ResetPasswordMessage(s.cfg.Sender, user.Email, user.Username, s.cfg.BaseURL, token, s.cfg.TokenTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send password reset mail",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return models.NewInternalError(err)
	}
	return nil
}

// VerifyResetPasswordToken returns the user a reset token was issued for, or
// nil when the token is malformed, tampered with, expired or names a user
// that no longer exists.
func (s *PasswordService) VerifyResetPasswordToken(ctx context.Context, token string) *models.User {
	id, ok := s.tokens.VerifyReset(token)
	if !ok {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return user
}

// ResetPassword replaces the password of the user named by in.Token.
func (s *PasswordService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	user := s.VerifyResetPasswordToken(ctx, in.Token)
	if user == nil {
		return models.NewUnauthorizedError("Invalid or expired reset token")
	}

	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return err
	}

	if err := user.SetPassword(in.Password); err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, *user.PasswordHash)
}
