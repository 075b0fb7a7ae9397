package main

import "testing"

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PDFA_DATABASE_URI":              "database.uri",
		"PDFA_QUOTA_DEFAULT_LIMIT":       "quota.default_limit",
		"PDFA_RETENTION_DAYS":            "retention.days",
		"PDFA_HTTP_TRUSTED_PROXIES":      "http.trusted_proxies",
		"PDFA_GHOSTSCRIPT_PDFA_VERSION":  "ghostscript.pdfa_version",
		"PDFA_MAINTENANCE_INTERVAL":      "maintenance.interval",
		"PDFA_QUOTA_MAX_REQUESTED_LIMIT": "quota.max_requested_limit",
	}

	for name, expected := range tests {
		if actual := envKey(name); actual != expected {
			t.Fatalf("expected %s to map to %s, got %s", name, expected, actual)
		}
	}
}
