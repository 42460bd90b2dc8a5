package server

import (
	"microblog/internal/models"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.feedService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID: currentUserID(c),
		Body:   req.Body,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetFeed handles GET /api/feed?page=N: the caller's posts and those of
// everyone they follow.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.feedService.FollowingPosts(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(page)
}

// GetExplore handles GET /api/explore?page=N
func (s *Server) GetExplore(c *fiber.Ctx) error {
	page, err := s.feedService.Explore(c.UserContext(), parsePage(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(page)
}
