package repository

import (
	"context"
	"errors"
	"time"

	"microblog/internal/cache"
	"microblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID returns the user without password material; it is served from
	// the cache when possible.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByUsername and GetByEmail return nil, nil when no user matches.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, username, aboutMe string) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	TouchLastSeen(ctx context.Context, id uint, at time.Time) error
	WithTx(tx *gorm.DB) UserRepository
}

type userRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx, inTx: true}
}

// cachedUser is the cache representation of a user. models.User hides email
// from JSON, so it cannot be cached directly.
type cachedUser struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	AboutMe   string     `json:"about_me"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *cachedUser) toModel() *models.User {
	return &models.User{
		ID:        c.ID,
		Username:  c.Username,
		Email:     c.Email,
		AboutMe:   c.AboutMe,
		LastSeen:  c.LastSeen,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var cached cachedUser
	fetch := func() error {
		var user models.User
		if err := readDB(r.db, r.inTx).WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		cached = cachedUser{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			AboutMe:   user.AboutMe,
			LastSeen:  user.LastSeen,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		}
		return nil
	}

	var err error
	if r.inTx {
		err = fetch()
	} else {
		err = cache.Aside(ctx, cache.UserKey(id), &cached, cache.UserTTL, fetch)
	}
	if err != nil {
		return nil, err
	}
	return cached.toModel(), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := readDB(r.db, r.inTx).WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, username, aboutMe string) error {
	return r.update(ctx, id, map[string]any{
		"username": username,
		"about_me": aboutMe,
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": passwordHash})
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, id, map[string]any{"last_seen": at.UTC()})
}

func (r *userRepository) update(ctx context.Context, id uint, values map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
