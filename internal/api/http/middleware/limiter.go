package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

// NewLimiterWithRedis is the global sliding-window limiter.
func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(rdb, cfg.Max, cfg.WindowSeconds, "")
}

// NewOTPLimiter is the stricter limiter for the OTP endpoints, keyed by client IP
// separately from the global window.
func NewOTPLimiter(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(rdb, cfg.OTPMax, cfg.OTPWindowSeconds, "otp:")
}

func newLimiter(rdb *redis.Client, max, windowSeconds int, prefix string) fiber.Handler {
	if max <= 0 {
		max = 20
	}
	if windowSeconds <= 0 {
		windowSeconds = 30
	}
	return limiter.New(limiter.Config{
		Storage: fiberredis.NewFromConnection(rdb),

		// sliding window
		Max:               max,
		Expiration:        time.Duration(windowSeconds) * time.Second,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c fiber.Ctx) string {
			return prefix + c.IP()
		},
	})
}
