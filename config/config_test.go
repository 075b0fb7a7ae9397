package config

import (
	"testing"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
)

func load(t *testing.T, values map[string]interface{}) (*Specification, error) {
	t.Helper()
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		t.Fatalf("load values: %v", err)
	}
	return FromKoanf(k)
}

func TestFromKoanfRequiresDatabaseURI(t *testing.T) {
	if _, err := load(t, map[string]interface{}{}); err == nil {
		t.Fatalf("expected an error when database.uri is missing")
	}
}

func TestFromKoanfDefaults(t *testing.T) {
	s, err := load(t, map[string]interface{}{"database.uri": "postgres://localhost/pdfa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DefaultDailyLimit != DefaultDailyLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultDailyLimit, s.DefaultDailyLimit)
	}
	if s.MaxFiles != 5 || s.ExpansionDays != 30 || s.MaxRequestedLimit != 10000 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.RenderTimeout != 2*time.Minute {
		t.Fatalf("expected 2m render timeout, got %s", s.RenderTimeout)
	}
	if s.StorageDriver != "disk" || s.GhostscriptPath != "gs" {
		t.Fatalf("unexpected storage or ghostscript defaults: %+v", s)
	}
}

func TestFromKoanfOverrides(t *testing.T) {
	s, err := load(t, map[string]interface{}{
		"database.uri":           "postgres://localhost/pdfa",
		"quota.default_limit":    25,
		"conversion.max_files":   3,
		"maintenance.interval":   "15m",
		"storage.driver":         "minio",
		"minio.endpoint":         "minio:9000",
		"throttle.per_minute":    120,
		"ghostscript.path":       "/usr/bin/gs",
		"conversion.work_dir":    "/tmp/pdfa",
		"quota.expansion_days":   14,
		"retention.days":         3,
		"http.trusted_proxies":   []string{"10.0.0.0/8"},
		"nats.cluster":           "nats://nats:4222",
		"conversion.concurrency": 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DefaultDailyLimit != 25 || s.MaxFiles != 3 || s.ExpansionDays != 14 || s.RetentionDays != 3 {
		t.Fatalf("overrides not applied: %+v", s)
	}
	if s.MaintenanceEvery != 15*time.Minute {
		t.Fatalf("expected 15m maintenance interval, got %s", s.MaintenanceEvery)
	}
	if s.StorageDriver != "minio" || s.MinioEndpoint != "minio:9000" {
		t.Fatalf("unexpected storage settings: %+v", s)
	}
	if len(s.TrustedProxies) != 1 || s.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies: %v", s.TrustedProxies)
	}
}

func TestFromKoanfRejectsMinioWithoutEndpoint(t *testing.T) {
	_, err := load(t, map[string]interface{}{
		"database.uri":   "postgres://localhost/pdfa",
		"storage.driver": "minio",
	})
	if err == nil {
		t.Fatalf("expected an error for minio without an endpoint")
	}
}

func TestFromKoanfRejectsUnknownStorageDriver(t *testing.T) {
	_, err := load(t, map[string]interface{}{
		"database.uri":   "postgres://localhost/pdfa",
		"storage.driver": "ftp",
	})
	if err == nil {
		t.Fatalf("expected an error for an unknown storage driver")
	}
}

func TestFromKoanfRejectsMaxLimitBelowDefault(t *testing.T) {
	_, err := load(t, map[string]interface{}{
		"database.uri":              "postgres://localhost/pdfa",
		"quota.default_limit":       100,
		"quota.max_requested_limit": 50,
	})
	if err == nil {
		t.Fatalf("expected an error when the max requested limit is below the default limit")
	}
}
