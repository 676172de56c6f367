package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	// LoadEnv returns nil when no .env file exists
	err := LoadEnv()
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateEnvAllSet(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("OWNER_API_URL", "http://owner.test")
	defer os.Unsetenv("JWT_SECRET")
	defer os.Unsetenv("OWNER_API_URL")

	err := ValidateEnv()
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateEnvMissingJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	os.Setenv("OWNER_API_URL", "http://owner.test")
	defer os.Unsetenv("OWNER_API_URL")

	err := ValidateEnv()
	if err == nil {
		t.Error("expected error for missing JWT_SECRET")
	}
}

func TestValidateEnvMissingOwnerAPI(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Unsetenv("OWNER_API_URL")
	defer os.Unsetenv("JWT_SECRET")

	err := ValidateEnv()
	if err == nil {
		t.Error("expected error for missing OWNER_API_URL")
	}
}

func TestValidateEnvDatabaseOptional(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("OWNER_API_URL", "http://owner.test")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("JWT_SECRET")
	defer os.Unsetenv("OWNER_API_URL")

	if err := ValidateEnv(); err != nil {
		t.Errorf("DATABASE_URL should only warn, got %v", err)
	}
}

func TestGetEnvExisting(t *testing.T) {
	os.Setenv("TEST_GET_ENV_KEY", "test-value")
	defer os.Unsetenv("TEST_GET_ENV_KEY")

	result := GetEnv("TEST_GET_ENV_KEY", "default")
	if result != "test-value" {
		t.Errorf("expected 'test-value', got '%s'", result)
	}
}

func TestGetEnvMissing(t *testing.T) {
	os.Unsetenv("TEST_GET_ENV_MISSING")
	result := GetEnv("TEST_GET_ENV_MISSING", "fallback")
	if result != "fallback" {
		t.Errorf("expected 'fallback', got '%s'", result)
	}
}

func TestGetEnvIntAndDuration(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	os.Setenv("TEST_BAD_INT", "many")
	os.Setenv("TEST_DUR", "250ms")
	os.Setenv("TEST_DUR_SECS", "7")
	defer func() {
		for _, k := range []string{"TEST_INT", "TEST_BAD_INT", "TEST_DUR", "TEST_DUR_SECS"} {
			os.Unsetenv(k)
		}
	}()

	if got := GetEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := GetEnvInt("TEST_BAD_INT", 5); got != 5 {
		t.Errorf("expected default 5, got %d", got)
	}
	if got := GetEnvDuration("TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
	if got := GetEnvDuration("TEST_DUR_SECS", time.Second); got != 7*time.Second {
		t.Errorf("expected 7s, got %v", got)
	}
	if got := GetEnvDuration("TEST_DUR_MISSING", 3*time.Second); got != 3*time.Second {
		t.Errorf("expected default, got %v", got)
	}
}

func TestLoadDefaultsAndOrigins(t *testing.T) {
	os.Setenv("OWNER_API_URL", "http://owner.test/")
	os.Setenv("CONSOLE_URL", "http://a.test, http://b.test ,")
	os.Setenv("APP_ENV", "development")
	defer os.Unsetenv("OWNER_API_URL")
	defer os.Unsetenv("CONSOLE_URL")
	defer os.Unsetenv("APP_ENV")

	cfg := Load()
	if cfg.OwnerAPIURL != "http://owner.test" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.OwnerAPIURL)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins: %v", cfg.AllowOrigins)
	}
	if cfg.LogEncoding != "console" || cfg.LogLevel != "debug" {
		t.Errorf("development should use console/debug logging, got %s/%s", cfg.LogEncoding, cfg.LogLevel)
	}
	if cfg.Port != "8080" || cfg.OwnerTimeout != 15*time.Second || cfg.SessionTTL != 72*time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
