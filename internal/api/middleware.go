package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// localClubID is the fiber.Ctx locals key carrying the authenticated club.
const localClubID = "club_id"

// RequireAuth verifies the bearer token and stores the caller's club ID in
// the request locals. Token issuance is owned by the auth provider; this
// side only verifies.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing token")
		}
		if !strings.HasPrefix(header, "Bearer ") {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header")
		}

		raw := header[len("Bearer "):]
		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid token claims")
		}
		clubID, ok := claims["club_id"].(string)
		if !ok || clubID == "" {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing club in token")
		}

		c.Locals(localClubID, clubID)
		return c.Next()
	}
}

// RateLimit is a fixed-window per-client counter in Redis, consulted before
// any handler runs. perMinute <= 0 disables it.
func RateLimit(rdb *redis.Client, perMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if perMinute <= 0 || rdb == nil {
			return c.Next()
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("footix:ratelimit:%s:%d", c.IP(), window)

		count, err := rdb.Incr(c.UserContext(), key).Result()
		if err != nil {
			// Redis trouble must not take the API down.
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(c.UserContext(), key, time.Minute)
		}
		if count > int64(perMinute) {
			return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		}
		return c.Next()
	}
}
