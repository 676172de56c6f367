package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the console's runtime configuration assembled from the environment.
type Config struct {
	AppEnv        string
	Port          string
	LogLevel      string
	LogEncoding   string
	OwnerAPIURL   string
	OwnerTimeout  time.Duration
	DatabaseURL   string
	StorageBucket string
	PreviewURL    string
	AllowOrigins  []string
	RateLimit     int
	RateWindow    time.Duration
	MaxUploadMB   int
	SessionTTL    time.Duration
}

func LoadEnv() error {
	// .env is optional (local development); in production variables are set directly
	_ = godotenv.Load()
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - the console cannot verify owners or reach the backend without these
	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("OWNER_API_URL") == "" {
		missing = append(missing, "OWNER_API_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("DATABASE_URL") == "" {
		log.Println("WARNING: DATABASE_URL not set - editor sessions will not survive a restart")
	}
	if os.Getenv("FIREBASE_STORAGE_BUCKET") == "" {
		log.Println("WARNING: FIREBASE_STORAGE_BUCKET not set - image previews are kept in memory")
	}
	if os.Getenv("CONSOLE_URL") == "" {
		log.Println("WARNING: CONSOLE_URL not set - CORS may not work correctly")
	}

	return nil
}

// Load reads the environment into a Config, applying defaults.
func Load() Config {
	cfg := Config{
		AppEnv:        GetEnv("APP_ENV", "production"),
		Port:          GetEnv("PORT", "8080"),
		LogLevel:      GetEnv("LOG_LEVEL", "info"),
		LogEncoding:   GetEnv("LOG_ENCODING", "json"),
		OwnerAPIURL:   strings.TrimRight(os.Getenv("OWNER_API_URL"), "/"),
		OwnerTimeout:  GetEnvDuration("OWNER_API_TIMEOUT", 15*time.Second),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StorageBucket: os.Getenv("FIREBASE_STORAGE_BUCKET"),
		PreviewURL:    GetEnv("PREVIEW_BASE_URL", "/previews"),
		RateLimit:     GetEnvInt("RATE_LIMIT", 60),
		RateWindow:    GetEnvDuration("RATE_WINDOW", time.Minute),
		MaxUploadMB:   GetEnvInt("MAX_UPLOAD_MB", 10),
		SessionTTL:    GetEnvDuration("SESSION_TTL", 72*time.Hour),
	}

	for _, o := range strings.Split(os.Getenv("CONSOLE_URL"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}

	if cfg.AppEnv == "development" {
		cfg.LogEncoding = "console"
		if os.Getenv("LOG_LEVEL") == "" {
			cfg.LogLevel = "debug"
		}
	}
	return cfg
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration accepts Go duration strings ("30s") or a bare number of seconds.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
