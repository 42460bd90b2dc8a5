package service

import (
	"context"

	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"

	"gorm.io/gorm"
)

// FollowService provides the follow graph operations. The acting user is
// always passed explicitly.
type FollowService struct {
	db         *gorm.DB
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService. When db is nil the
// repositories are used as given, without a surrounding transaction.
func NewFollowService(db *gorm.DB, followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		db:         db,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

func (s *FollowService) inTx(ctx context.Context, fn func(follows repository.FollowRepository, users repository.UserRepository) error) error {
	if s.db == nil {
		return fn(s.followRepo, s.userRepo)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.followRepo.WithTx(tx), s.userRepo.WithTx(tx))
	})
}

// Follow makes selfID follow otherID. Following someone already followed is
// a no-op reported with Changed=false.
func (s *FollowService) Follow(ctx context.Context, selfID, otherID uint) (*models.FollowState, error) {
	if selfID == otherID {
		return nil, models.NewValidationError("You cannot follow yourself!")
	}

	var state *models.FollowState
	err := s.inTx(ctx, func(follows repository.FollowRepository, users repository.UserRepository) error {
		if _, err := users.GetByID(ctx, otherID); err != nil {
			return err
		}
		created, err := follows.Create(ctx, selfID, otherID)
		if err != nil {
			return err
		}
		state, err = snapshot(ctx, follows, selfID, otherID)
		if err != nil {
			return err
		}
		state.Changed = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordFollow("follow", state.Changed)
	return state, nil
}

// Unfollow removes the edge selfID -> otherID if present.
func (s *FollowService) Unfollow(ctx context.Context, selfID, otherID uint) (*models.FollowState, error) {
	if selfID == otherID {
		return nil, models.NewValidationError("You cannot unfollow yourself!")
	}

	var state *models.FollowState
	err := s.inTx(ctx, func(follows repository.FollowRepository, users repository.UserRepository) error {
		if _, err := users.GetByID(ctx, otherID); err != nil {
			return err
		}
		deleted, err := follows.Delete(ctx, selfID, otherID)
		if err != nil {
			return err
		}
		state, err = snapshot(ctx, follows, selfID, otherID)
		if err != nil {
			return err
		}
		state.Changed = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordFollow("unfollow", state.Changed)
	return state, nil
}

func snapshot(ctx context.Context, follows repository.FollowRepository, selfID, otherID uint) (*models.FollowState, error) {
	following, err := follows.Exists(ctx, selfID, otherID)
	if err != nil {
		return nil, err
	}
	followers, err := follows.CountFollowers(ctx, otherID)
	if err != nil {
		return nil, err
	}
	followingCount, err := follows.CountFollowing(ctx, selfID)
	if err != nil {
		return nil, err
	}
	return &models.FollowState{
		Following:      following,
		FollowerCount:  followers,
		FollowingCount: followingCount,
	}, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, selfID, otherID uint) (bool, error) {
	return s.followRepo.Exists(ctx, selfID, otherID)
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, userID)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}

// Followers lists the users following userID, most recent first.
func (s *FollowService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowers(ctx, userID, limit, offset)
}

// Following lists the users userID follows, most recent first.
func (s *FollowService) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowing(ctx, userID, limit, offset)
}
