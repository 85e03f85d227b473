package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/pkg/redis"
)

// Limiter is the sliding window limiter the middleware consults per request
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error)
}

// Budget is one named rate allowance
type Budget struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// RateLimitConfig holds the per-client budgets. Export and admin routes get
// tighter allowances than general reads.
type RateLimitConfig struct {
	General Budget
	Export  Budget
	Admin   Budget
}

type RateLimitExceededResponse struct {
	Message    string `json:"message"`
	RetryAfter int64  `json:"retryAfter"`
}

// RateLimit throttles requests per client IP. Each budget tracks its own
// window, so an exhausted export budget never blocks general reads. When the
// limiter backend is unreachable the request is allowed through.
func RateLimit(limiter Limiter, config RateLimitConfig, logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			budget := selectBudget(config, c.Request().URL.Path)
			key := fmt.Sprintf("%s:%s", budget.Name, c.RealIP())

			result, err := limiter.Allow(c.Request().Context(), key, budget.Limit, budget.Window)
			if err != nil {
				logger.WithContext(c.Request().Context()).WithError(err).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.FormatInt(budget.Limit, 10))
			header.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int64(result.RetryIn.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				header.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				return c.JSON(http.StatusTooManyRequests, RateLimitExceededResponse{
					Message:    "rate limit exceeded",
					RetryAfter: retryAfter,
				})
			}

			return next(c)
		}
	}
}

func selectBudget(config RateLimitConfig, path string) Budget {
	switch {
	case strings.Contains(path, "/export"):
		return config.Export
	case strings.Contains(path, "/monitoring"):
		return config.Admin
	default:
		return config.General
	}
}
