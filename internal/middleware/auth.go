// Package middleware provides the Fiber middleware chain: authentication,
// rate limiting, logging, metrics and tracing.
package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionParser validates a bearer token and returns the user it belongs to.
type SessionParser interface {
	ParseSession(token string) (uint, error)
}

// LastSeenToucher records that a user was active.
type LastSeenToucher interface {
	Touch(ctx context.Context, userID uint) error
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
		"code":  "UNAUTHORIZED",
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// AuthRequired enforces a valid session token and stores the user ID in
// c.Locals("userID") and the request context.
func AuthRequired(tokens SessionParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return unauthorized(c, "Authorization header required")
		}
		token, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, "Invalid authorization header format")
		}

		userID, err := tokens.ParseSession(token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userID", userID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
		return c.Next()
	}
}

// TrackLastSeen refreshes the authenticated user's last_seen timestamp before
// the handler runs. Failures are logged and never block the request.
func TrackLastSeen(t LastSeenToucher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, ok := c.Locals("userID").(uint); ok {
			if err := t.Touch(c.UserContext(), userID); err != nil {
				Logger.WarnContext(c.UserContext(), "Failed to update last_seen",
					slog.Any("user_id", userID),
					slog.String("error", err.Error()),
				)
			}
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user ID set by AuthRequired.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
