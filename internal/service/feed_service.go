package service

import (
	"context"
	"math"

	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"
	"microblog/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// PostPage is one page of posts, newest first.
type PostPage struct {
	Posts   []models.Post `json:"posts"`
	Page    int           `json:"page"`
	HasNext bool          `json:"has_next"`
	HasPrev bool          `json:"has_prev"`
}

type CreatePostInput struct {
	UserID uint
	Body   string
}

// FeedService publishes posts and builds the timelines. perPage <= 0 turns
// pagination off and every page holds all matching posts.
type FeedService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	perPage  int
}

func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository, perPage int) *FeedService {
	return &FeedService{
		postRepo: postRepo,
		userRepo: userRepo,
		perPage:  perPage,
	}
}

func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidatePostBody(in.Body); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Body: in.Body, UserID: author.ID}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = *author

	observability.PostsCreated.Inc()
	return post, nil
}

// FollowingPosts returns the timeline of userID: their own posts and the
// posts of everyone they follow.
func (s *FeedService) FollowingPosts(ctx context.Context, userID uint, page int) (*PostPage, error) {
	span, ctx := observability.NewSpan(ctx, "FeedService.FollowingPosts", attribute.Int64("user.id", int64(userID)), attribute.Int("page", page))
	defer span.End()
	defer observability.TrackFeed("following")()

	result, err := s.paged(page, func(limit, offset int) ([]models.Post, error) {
		return s.postRepo.FollowingPosts(ctx, userID, limit, offset)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("posts.count", len(result.Posts)))
	return result, nil
}

// Explore returns every post.
func (s *FeedService) Explore(ctx context.Context, page int) (*PostPage, error) {
	span, ctx := observability.NewSpan(ctx, "FeedService.Explore", attribute.Int("page", page))
	defer span.End()
	defer observability.TrackFeed("explore")()

	result, err := s.paged(page, func(limit, offset int) ([]models.Post, error) {
		return s.postRepo.ListAll(ctx, limit, offset)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}

// UserPosts returns the posts written by username.
func (s *FeedService) UserPosts(ctx context.Context, username string, page int) (*PostPage, error) {
	defer observability.TrackFeed("user")()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	return s.paged(page, func(limit, offset int) ([]models.Post, error) {
		return s.postRepo.ListByUser(ctx, user.ID, limit, offset)
	})
}

// paged fetches one row beyond the page to learn whether a next page exists.
func (s *FeedService) paged(page int, list func(limit, offset int) ([]models.Post, error)) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	if s.perPage <= 0 {
		posts, err := list(0, 0)
		if err != nil {
			return nil, err
		}
		return &PostPage{Posts: nonNil(posts), Page: 1}, nil
	}

	// Offsets past MaxInt32 rows cannot hold posts, and (page-1)*perPage
	// would overflow for large enough pages.
	if page-1 > math.MaxInt32/s.perPage {
		return &PostPage{Posts: []models.Post{}, Page: page, HasPrev: true}, nil
	}

	posts, err := list(s.perPage+1, (page-1)*s.perPage)
	if err != nil {
		return nil, err
	}
	hasNext := len(posts) > s.perPage
	if hasNext {
		posts = posts[:s.perPage]
	}
	return &PostPage{
		Posts:   nonNil(posts),
		Page:    page,
		HasNext: hasNext,
		HasPrev: page > 1,
	}, nil
}

func nonNil(posts []models.Post) []models.Post {
	if posts == nil {
		return []models.Post{}
	}
	return posts
}
