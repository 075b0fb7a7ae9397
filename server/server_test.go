package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cyverse/pdfa/config"
	"github.com/cyverse/pdfa/internal/throttle"
)

func TestIPExtractor(t *testing.T) {
	extractor, err := ipExtractor([]string{"10.1.0.0/16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	if ip := extractor(req); ip != "198.51.100.7" {
		t.Fatalf("expected the forwarded address from a trusted proxy, got %s", ip)
	}

	direct, err := ipExtractor(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip := direct(req); ip != "10.1.2.3" {
		t.Fatalf("expected the peer address without trusted proxies, got %s", ip)
	}

	if _, err = ipExtractor([]string{"not-a-network"}); err == nil {
		t.Fatalf("expected an error for an invalid network")
	}
}

func TestBodyLimit(t *testing.T) {
	spec := &config.Specification{MaxFiles: 5, MaxFileSizeKB: 10240}
	if limit := bodyLimit(spec); limit != "52224K" {
		t.Fatalf("unexpected body limit: %s", limit)
	}
}

func TestFormats(t *testing.T) {
	spec := &config.Specification{
		PDFAVersion:       "2",
		MaxFiles:          5,
		MaxFileSizeKB:     10240,
		DefaultDailyLimit: 10,
		MaxRequestedLimit: 10000,
		RetentionDays:     7,
	}
	formats := Formats(spec)
	if formats.OutputFormats[0] != "PDF/A-2b" || formats.DailyLimit != 10 || formats.MaxRequestable != 10000 {
		t.Fatalf("unexpected formats: %+v", formats)
	}
}

func TestInitLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter, err := InitLimiter(ctx, &config.Specification{ThrottlePerMinute: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := limiter.(*throttle.MemoryLimiter); !ok {
		t.Fatalf("expected an in-memory limiter, got %T", limiter)
	}

	mr := miniredis.RunT(t)
	limiter, err = InitLimiter(ctx, &config.Specification{ThrottlePerMinute: 30, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := limiter.(*throttle.RedisLimiter); !ok {
		t.Fatalf("expected a redis limiter, got %T", limiter)
	}
	if limiter.Limit() != 30 {
		t.Fatalf("expected a limit of 30, got %d", limiter.Limit())
	}
}

func TestInitNotifierWithoutNATS(t *testing.T) {
	notifier, err := InitNotifier(&config.Specification{AdminEmail: "admin@example.org"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier == nil {
		t.Fatalf("expected a notifier")
	}
}
