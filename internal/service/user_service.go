package service

import (
	"context"
	"strings"
	"time"

	"microblog/internal/auth"
	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	tokens     *auth.Tokens
	sessionTTL time.Duration
	now        func() time.Time
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=64,username"`
	Email     string `json:"email" validate:"required,email,max=120"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the session token handed to the client. Logging out
// is the client discarding it.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type UpdateProfileInput struct {
	UserID   uint
	Username string `json:"username"`
	AboutMe  string `json:"about_me"`
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, tokens *auth.Tokens, sessionTTL time.Duration) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Register creates an account. Taken usernames and emails are reported as
// conflicts before the insert; the unique indexes catch any race.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Please use a different username.")
	}
	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Please use a different email address.")
	}

	user := &models.User{Username: in.Username, Email: in.Email}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = nil
	return user, nil
}

// Authenticate checks the credentials and issues a session token. Unknown
// users and wrong passwords get the same answer.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CheckPassword(in.Password) {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}

	token, err := s.tokens.IssueSession(user.ID, user.Username, s.sessionTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.PasswordHash = nil
	return &LoginResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.sessionTTL).UTC(),
		User:      user,
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Lookup resolves a username, reporting unknown names as not found.
func (s *UserService) Lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	user.PasswordHash = nil
	return user, nil
}

// GetProfile loads username as seen by viewerID. A zero viewer is anonymous.
func (s *UserService) GetProfile(ctx context.Context, viewerID uint, username string) (*models.Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	user.PasswordHash = nil

	followers, err := s.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		User:           user,
		FollowerCount:  followers,
		FollowingCount: following,
		IsSelf:         viewerID == user.ID,
	}
	if viewerID != 0 && !profile.IsSelf {
		if profile.IsFollowing, err = s.followRepo.Exists(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// UpdateProfile changes username and about_me. The username is re-checked
// only when it actually changes.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validation.ValidateAboutMe(in.AboutMe); err != nil {
		return nil, err
	}

	current, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != current.Username {
		taken, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, models.NewConflictError("Please use a different username.")
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, in.UserID, in.Username, in.AboutMe); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

// Touch records that userID was just active.
func (s *UserService) Touch(ctx context.Context, userID uint) error {
	return s.userRepo.TouchLastSeen(ctx, userID, s.now())
}
