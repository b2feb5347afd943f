package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("POLL_MAX_ATTEMPTS", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreMemory)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %s, want 5s", cfg.PollInterval)
	}
	if cfg.PollMaxAttempts != 60 {
		t.Fatalf("PollMaxAttempts = %d, want 60", cfg.PollMaxAttempts)
	}
	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Fatalf("MaxUploadSize = %d, want 10MiB", cfg.MaxUploadSize)
	}
	if cfg.ReplicateCallTimeout != 30*time.Second {
		t.Fatalf("ReplicateCallTimeout = %s, want 30s", cfg.ReplicateCallTimeout)
	}
}

func TestLoadConfigPostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}

	t.Setenv("DATABASE_URL", "postgres://example")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadConfigParsesOriginsAndPolling(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://localhost:5173, ,https://app.example.com ")
	t.Setenv("POLL_INTERVAL_SECONDS", "2")
	t.Setenv("POLL_MAX_ATTEMPTS", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StoreDriver != StoreSQLite {
		t.Fatalf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	want := []string{"http://localhost:5173", "https://app.example.com"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
	if cfg.PollInterval != 2*time.Second || cfg.PollMaxAttempts != 10 {
		t.Fatalf("poll settings = %s/%d", cfg.PollInterval, cfg.PollMaxAttempts)
	}
}

func TestLoadConfigRejectsNonPositiveAttempts(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("POLL_MAX_ATTEMPTS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for zero attempts")
	}
}
