package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"chartsrv/internal/infra/logging"
)

// RedisConfig selects the Redis backing for rate windows. An empty Addr
// keeps windows in process memory.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns the window store. Redis init panics when the server is
// unreachable; that is caught here and the limiter falls back to memory so
// a missing Redis never blocks startup.
func NewStore(cfg RedisConfig) fiber.Storage {
	var store fiber.Storage = memoryStorage.New()
	if cfg.Addr == "" {
		return store
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
			}
		}()
		store = redisStorage.New(redisStorage.Config{
			Addrs:    []string{cfg.Addr},
			Database: cfg.DB,
		})
		logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	}()

	return store
}
