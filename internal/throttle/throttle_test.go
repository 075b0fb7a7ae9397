package throttle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func TestRedisLimiter(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	limiter, err := NewRedisLimiter(client, "test:throttle", 2, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, err := limiter.Allow(ctx, "192.0.2.1"); err != nil || !ok {
			t.Fatalf("call %d should be allowed: %t, %v", i+1, ok, err)
		}
	}
	if ok, _ := limiter.Allow(ctx, "192.0.2.1"); ok {
		t.Fatalf("the third call should be blocked")
	}
	if ok, _ := limiter.Allow(ctx, "192.0.2.2"); !ok {
		t.Fatalf("other clients must not be affected")
	}
}

func TestRedisLimiterReportsFailures(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	limiter, _ := NewRedisLimiter(client, "", 1, time.Minute)
	server.Close()

	if _, err := limiter.Allow(context.Background(), "192.0.2.1"); err == nil {
		t.Fatalf("expected an error when redis is unavailable")
	}
}

func TestNewRedisLimiterValidation(t *testing.T) {
	if _, err := NewRedisLimiter(nil, "", 0, time.Minute); err == nil {
		t.Fatalf("expected an error for a zero limit")
	}
}

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := limiter.Allow(ctx, "192.0.2.1"); !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if ok, _ := limiter.Allow(ctx, "192.0.2.1"); ok {
		t.Fatalf("the fourth call should be blocked")
	}

	limiter.idleTTL = -time.Second
	limiter.Cleanup()
	if limiter.Len() != 0 {
		t.Fatalf("expected idle keys to be removed")
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("unavailable") }
func (brokenLimiter) Limit() int                                  { return 1 }

func serve(limiter Limiter) int {
	e := echo.New()
	e.Use(Middleware(limiter))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:41234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware(t *testing.T) {
	limiter := NewMemoryLimiter(1)
	if code := serve(limiter); code != http.StatusOK {
		t.Fatalf("expected the first call to succeed, got %d", code)
	}
	if code := serve(limiter); code != http.StatusTooManyRequests {
		t.Fatalf("expected the second call to be throttled, got %d", code)
	}
}

func TestMiddlewareAllowsCallsWhenLimiterFails(t *testing.T) {
	if code := serve(brokenLimiter{}); code != http.StatusOK {
		t.Fatalf("expected the call to be allowed, got %d", code)
	}
}
