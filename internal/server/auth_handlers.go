package server

import (
	"microblog/internal/models"
	"microblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := s.userService.Authenticate(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(result)
}

// Logout handles POST /api/auth/logout. Sessions are stateless tokens, so
// logging out is the client dropping its token.
func (s *Server) Logout(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// RequestPasswordReset handles POST /api/auth/reset_password_request. The
// response is the same whether or not the email belongs to an account.
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := s.passwordService.RequestReset(c.UserContext(), req.Email); err != nil {
		return models.Respond(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Check your email for the instructions to reset your password",
	})
}

// VerifyResetToken handles GET /api/auth/reset_password/:token
func (s *Server) VerifyResetToken(c *fiber.Ctx) error {
	user := s.passwordService.VerifyResetPasswordToken(c.UserContext(), c.Params("token"))
	if user == nil {
		return models.Respond(c, models.NewValidationError("Invalid or expired reset token"))
	}
	return c.JSON(fiber.Map{
		"valid":    true,
		"username": user.Username,
	})
}

// ResetPassword handles POST /api/auth/reset_password/:token
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	req.Token = c.Params("token")

	if err := s.passwordService.ResetPassword(c.UserContext(), req); err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(fiber.Map{"message": "Your password has been reset."})
}
