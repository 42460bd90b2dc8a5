package repository

import (
	"context"

	"microblog/internal/models"
	"microblog/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines persistence operations for posts. List methods
// return newest first and treat a non-positive limit as unbounded.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FollowingPosts(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	WithTx(tx *gorm.DB) PostRepository
}

type postRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx, inTx: true}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", post.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// FollowingPosts returns the posts written by userID or by anyone userID
// follows. The LEFT JOIN yields one row per follower of the author, so the
// result is grouped by post to drop the duplicates. The query runs against
// the primary so a user always sees their own fresh posts.
func (r *postRepository) FollowingPosts(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "FollowingPosts", "posts")
	defer span.End()
	defer observability.TrackQuery("following_posts", "posts")()

	var posts []models.Post
	q := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*").
		Joins("LEFT JOIN follows ON follows.followed_id = posts.user_id").
		Where("follows.follower_id = ? OR posts.user_id = ?", userID, userID).
		Group("posts.id").
		Order("posts.timestamp DESC").
		Order("posts.id DESC").
		Preload("Author")
	if err := paginate(q, limit, offset).Find(&posts).Error; err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	defer observability.TrackQuery("list_all", "posts")()

	var posts []models.Post
	q := readDB(r.db, r.inTx).WithContext(ctx).
		Order("posts.timestamp DESC").
		Order("posts.id DESC").
		Preload("Author")
	if err := paginate(q, limit, offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	defer observability.TrackQuery("list_by_user", "posts")()

	var posts []models.Post
	q := readDB(r.db, r.inTx).WithContext(ctx).
		Where("posts.user_id = ?", userID).
		Order("posts.timestamp DESC").
		Order("posts.id DESC").
		Preload("Author")
	if err := paginate(q, limit, offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
