package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, `
http_addr: ":9000"
database_url: "postgres://yaml"
booking_lock_ttl: 30s
nats_subject_prefix: "estate"
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetHTTPAddr() != ":9000" {
		t.Fatalf("yaml value lost: %q", cfg.GetHTTPAddr())
	}
	if cfg.GetDatabaseURL() != "postgres://env" {
		t.Fatalf("env must win over yaml: %q", cfg.GetDatabaseURL())
	}
	if cfg.GetBookingLockTTL() != 30*time.Second {
		t.Fatalf("unexpected ttl %v", cfg.GetBookingLockTTL())
	}
	if cfg.GetNATSSubjectPrefix() != "estate" || cfg.IsNATSEnabled() {
		t.Fatal("nats stays disabled without a url")
	}
	if cfg.GetAsynqQueueName() != "default" {
		t.Fatalf("defaults must apply: %q", cfg.GetAsynqQueueName())
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("JWT_ACCESS_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing JWT secret to fail")
	}
}

func TestValidateRejectsWildcardWithCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "postgres://x"
	cfg.JWTAccessSecret = "s"
	cfg.CORSAllowAll = true
	cfg.CORSAllowCreds = true

	if err := validate(&cfg); err == nil {
		t.Fatal("expected CORS validation error")
	}
}

func TestCalendarEnabledNeedsRefreshToken(t *testing.T) {
	cfg := Defaults()
	cfg.GoogleClientID = "client"
	if cfg.IsCalendarEnabled() {
		t.Fatal("calendar needs a refresh token")
	}
	cfg.GoogleRefreshToken = "refresh"
	if !cfg.IsCalendarEnabled() {
		t.Fatal("calendar should be enabled")
	}
}

func TestValidateRejectsUnknownTimezone(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "postgres://x"
	cfg.JWTAccessSecret = "s"
	cfg.CalendarTimezone = "Mars/Olympus"

	if err := validate(&cfg); err == nil {
		t.Fatal("expected timezone validation error")
	}
}
