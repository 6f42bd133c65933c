package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration read from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// KeyData is the Firebase service account JSON, passed whole through one
	// environment variable.
	KeyData       string
	ProjectID     string
	StorageBucket string

	// SuperadminUIDs is the flat allow-list of UIDs that bypass per-user
	// grants. There is no role hierarchy beyond this.
	SuperadminUIDs []string

	GeocodingAPIKey     string
	AnalyticsPropertyID string

	RedisAddr     string
	RedisPassword string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	DeleteRetries    int
	DeleteRetryDelay int // milliseconds
}

// Load reads configuration from environment variables and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                getenv("PORT", "8080"),
		Environment:         getenv("ENVIRONMENT", "development"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		KeyData:             os.Getenv("KEY_DATA"),
		ProjectID:           os.Getenv("GCP_PROJECT_ID"),
		StorageBucket:       os.Getenv("STORAGE_BUCKET"),
		SuperadminUIDs:      splitList(os.Getenv("SUPERADMIN_UIDS")),
		GeocodingAPIKey:     os.Getenv("GEOCODING_API_KEY"),
		AnalyticsPropertyID: os.Getenv("ANALYTICS_PROPERTY_ID"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getenvInt("SMTP_PORT", 587),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:            getenv("SMTP_FROM", "noreply@modbox.example"),
		DeleteRetries:       getenvInt("DELETE_RETRIES", 3),
		DeleteRetryDelay:    getenvInt("DELETE_RETRY_DELAY_MS", 100),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
