package bootstrap

import (
	"fmt"
	"time"

	"github.com/go-authgate/dirgate/internal/config"
	"github.com/go-authgate/dirgate/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupLoginRateLimit returns the login limiter, or nil when disabled
func setupLoginRateLimit(cfg *config.Config, logger *zap.Logger) (gin.HandlerFunc, error) {
	if cfg.LoginRateLimit == 0 {
		logger.Info("login rate limiting disabled")
		return nil, nil
	}

	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.LoginRateLimit,
		CleanupInterval:   5 * time.Minute,
		Prefix:            "login",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create login rate limiter: %w", err)
	}

	logger.Info("login rate limiting enabled", zap.Int("requests_per_minute", cfg.LoginRateLimit))
	return limiter, nil
}
