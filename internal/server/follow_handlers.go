package server

import (
	"microblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/users/:username/follow
func (s *Server) Follow(c *fiber.Ctx) error {
	ctx := c.UserContext()

	target, err := s.userService.Lookup(ctx, c.Params("username"))
	if err != nil {
		return models.Respond(c, err)
	}

	state, err := s.followService.Follow(ctx, currentUserID(c), target.ID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// Unfollow handles POST /api/users/:username/unfollow
func (s *Server) Unfollow(c *fiber.Ctx) error {
	ctx := c.UserContext()

	target, err := s.userService.Lookup(ctx, c.Params("username"))
	if err != nil {
		return models.Respond(c, err)
	}

	state, err := s.followService.Unfollow(ctx, currentUserID(c), target.ID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(state)
}

// GetFollowers handles GET /api/users/:username/followers?limit=&offset=
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := s.userService.Lookup(ctx, c.Params("username"))
	if err != nil {
		return models.Respond(c, err)
	}

	page := parsePagination(c, s.config.PostsPerPage)
	users, err := s.followService.Followers(ctx, user.ID, page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:username/following?limit=&offset=
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := s.userService.Lookup(ctx, c.Params("username"))
	if err != nil {
		return models.Respond(c, err)
	}

	page := parsePagination(c, s.config.PostsPerPage)
	users, err := s.followService.Following(ctx, user.ID, page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}
