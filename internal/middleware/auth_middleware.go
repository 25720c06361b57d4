package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-gluten-scan/pkg/jwt"
)

// RequireAuth validates the bearer token and puts the requesting user's
// identity in the context. Token issuance happens in the identity service;
// this API only needs to know who is scanning.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": jwt.ErrMissingToken.Error()})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", claims.UserID.String())
		c.Locals("user_email", claims.Email)

		return c.Next()
	}
}
