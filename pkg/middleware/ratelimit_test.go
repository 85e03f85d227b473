package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/redis"
)

type fakeLimiter struct {
	calls []fakeLimiterCall
	err   error
}

type fakeLimiterCall struct {
	key   string
	limit int64
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int64, window time.Duration) (*redis.RateLimitResult, error) {
	f.calls = append(f.calls, fakeLimiterCall{key: key, limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	count := int64(0)
	for _, call := range f.calls {
		if call.key == key {
			count++
		}
	}
	if count > limit {
		return &redis.RateLimitResult{
			Allowed: false,
			ResetAt: time.Now().Add(window),
			RetryIn: 17 * time.Second,
		}, nil
	}
	return &redis.RateLimitResult{
		Allowed:   true,
		Remaining: limit - count,
		ResetAt:   time.Now().Add(window),
	}, nil
}

func testRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		General: Budget{Name: "general", Limit: 100, Window: time.Minute},
		Export:  Budget{Name: "export", Limit: 10, Window: time.Minute},
		Admin:   Budget{Name: "admin", Limit: 30, Window: time.Minute},
	}
}

func doRateLimitedRequest(t *testing.T, mw echo.MiddlewareFunc, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Real-Ip", "203.0.113.9")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestRateLimit_BlocksAfterBudgetExhausted(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	limiter := &fakeLimiter{}
	mw := RateLimit(limiter, testRateLimitConfig(), logger)

	var last *httptest.ResponseRecorder
	for i := 0; i < 100; i++ {
		last = doRateLimitedRequest(t, mw, "/api/meps")
		require.Equal(t, http.StatusOK, last.Code)
	}

	rec := doRateLimitedRequest(t, mw, "/api/meps")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "17", rec.Header().Get("Retry-After"))

	var body RateLimitExceededResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(17), body.RetryAfter)
}

func TestRateLimit_SetsHeadersOnAllowedRequests(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	limiter := &fakeLimiter{}
	mw := RateLimit(limiter, testRateLimitConfig(), logger)

	rec := doRateLimitedRequest(t, mw, "/api/meps")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_ExportBudgetIsSeparate(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	limiter := &fakeLimiter{}
	mw := RateLimit(limiter, testRateLimitConfig(), logger)

	doRateLimitedRequest(t, mw, "/api/export/meps/csv")
	doRateLimitedRequest(t, mw, "/api/monitoring/admin/users")
	doRateLimitedRequest(t, mw, "/api/meps")

	require.Len(t, limiter.calls, 3)
	assert.Equal(t, "export:203.0.113.9", limiter.calls[0].key)
	assert.Equal(t, int64(10), limiter.calls[0].limit)
	assert.Equal(t, "admin:203.0.113.9", limiter.calls[1].key)
	assert.Equal(t, "general:203.0.113.9", limiter.calls[2].key)
}

func TestRateLimit_FailsOpenWhenLimiterUnavailable(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	limiter := &fakeLimiter{err: errors.New("redis down")}
	mw := RateLimit(limiter, testRateLimitConfig(), logger)

	rec := doRateLimitedRequest(t, mw, "/api/meps")
	assert.Equal(t, http.StatusOK, rec.Code)
}
