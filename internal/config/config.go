package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	ClientsTable      string
	AppointmentsTable string
	SessionsTable     string
	MessagesTable     string
	ConnectionsTable  string
	EventRefsTable    string

	ResourceBucket string
	SyncQueueURL   string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SESFromEmail      string
	SESFromName       string
	SendGridAPIKey    string
	SendGridFromEmail string
	NotifyRecipient   string

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// RateLimitRPS of 0 leaves HTTP rate limiting disabled.
	RateLimitRPS   float64
	RateLimitBurst int

	SyncCallTimeout      time.Duration
	SyncRetryMaxAttempts int
	SyncRetryBaseDelay   time.Duration
	WorkerPollInterval   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ClientsTable:      getEnv("CLIENTS_TABLE", "clients"),
		AppointmentsTable: getEnv("APPOINTMENTS_TABLE", "appointments"),
		SessionsTable:     getEnv("SESSIONS_TABLE", "session_notes"),
		MessagesTable:     getEnv("MESSAGES_TABLE", "messages"),
		ConnectionsTable:  getEnv("CONNECTIONS_TABLE", "calendar_connections"),
		EventRefsTable:    getEnv("EVENT_REFS_TABLE", "calendar_event_refs"),

		ResourceBucket: getEnv("RESOURCE_BUCKET", ""),
		SyncQueueURL:   getEnv("SYNC_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Caseflow"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		NotifyRecipient:   getEnv("NOTIFY_RECIPIENT", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),

		SyncCallTimeout:      getEnvAsDuration("SYNC_CALL_TIMEOUT", 5*time.Second),
		SyncRetryMaxAttempts: getEnvAsInt("SYNC_RETRY_MAX_ATTEMPTS", 2),
		SyncRetryBaseDelay:   getEnvAsDuration("SYNC_RETRY_BASE_DELAY", 200*time.Millisecond),
		WorkerPollInterval:   getEnvAsDuration("WORKER_POLL_INTERVAL", 10*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
