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
	DatabaseURL   string

	// WhatsApp Cloud API
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAPIBaseURL    string

	// Inbound webhook dedupe
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	DedupeTTL      time.Duration
	CORSOrigins    []string
	BusinessName   string
	DefaultCountry string

	// SendGrid operator notifications
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	OperatorAlertEmail string

	// Google Calendar follow-up scheduling
	GoogleCredentialsJSON string
	GoogleCalendarID      string
	FollowUpDuration      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),

		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		DedupeTTL:      getEnvAsDuration("INBOUND_DEDUPE_TTL", 24*time.Hour),
		CORSOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS"),
		BusinessName:   getEnv("BUSINESS_NAME", "Eventos Andes"),
		DefaultCountry: getEnv("DEFAULT_COUNTRY", "PE"),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "Eventos Andes"),
		OperatorAlertEmail: getEnv("OPERATOR_ALERT_EMAIL", ""),

		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
		FollowUpDuration:      getEnvAsDuration("FOLLOW_UP_DURATION", 45*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
	raw := getEnv(key, "")
	if raw == "" {
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
