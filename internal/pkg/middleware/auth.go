package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/repository"
	"github.com/mystrio/mystrio-api/internal/pkg/cache"
	"github.com/mystrio/mystrio-api/internal/pkg/security"
)

const (
	// Locals keys populated by RequireAuth.
	LocalUserID   = "userID"
	LocalUsername = "username"

	premiumCacheTTL = 60 * time.Second
)

// RequireAuth validates the Authorization bearer token and stores the caller's
// identity in the request locals. Requests without a token get 401; requests
// with a bad or expired token get 403.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		return c.Next()
	}
}

// RequireAdmin allows only administrators through. The admin flag is read
// fresh from the database so a revoked admin loses access immediately, not
// when the token expires.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(LocalUserID).(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		user, err := repository.GetGlobalRepositories().User.GetByID(userID)
		if err != nil || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// RequirePremium allows only users with an active premium subscription
// through. The premium flag is cached briefly so hot endpoints do not hit the
// database on every request; the payment webhook invalidates the entry when
// an expiry changes.
func RequirePremium() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(LocalUserID).(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if cached, err := cache.Get(PremiumCacheKey(userID)); err == nil {
			if cached == "1" {
				return c.Next()
			}
			return premiumRequired(c)
		}

		user, err := repository.GetGlobalRepositories().User.GetByID(userID)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Premium subscription required",
			})
		}

		isPremium := user.IsPremium()
		value := "0"
		if isPremium {
			value = "1"
		}
		_ = cache.Set(PremiumCacheKey(userID), value, premiumCacheTTL)

		if !isPremium {
			return premiumRequired(c)
		}
		return c.Next()
	}
}

func premiumRequired(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error":   "Premium subscription required",
		"message": "This feature is only available to premium subscribers.",
	})
}

// PremiumCacheKey is the cache key holding a user's premium flag.
func PremiumCacheKey(userID uint) string {
	return fmt.Sprintf("premium_status:%d", userID)
}

// UserID extracts the authenticated user's id from the request locals.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok
}
