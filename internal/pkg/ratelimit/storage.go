package ratelimit

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/cinefila/cinefila/internal/pkg/cache"
	"github.com/cinefila/cinefila/internal/pkg/env"
)

// NewStorage builds a redis-backed storage for the rate limiter, reusing the
// cache connection settings. Database 1 keeps limiter counters apart from
// application cache keys in database 0.
func NewStorage() fiber.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

// NewLimiter returns the standard API rate limiter backed by redis so limits
// hold across instances.
func NewLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:     max,
		Storage: NewStorage(),
	})
}
