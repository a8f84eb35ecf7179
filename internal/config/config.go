package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int
	DatabaseURL string
	// JWTSecret is optional; without it every checkout is anonymous.
	JWTSecret   string
	CORSOrigins []string

	// Gateway settings. Credentials live in the gateways table; these seed a
	// default row on first startup and configure the HTTP client.
	GatewayProvider      string
	GatewayBaseURL       string
	GatewayEnvironment   string
	GatewayPublicKey     string
	GatewayAccessToken   string
	GatewayWebhookSecret string
	GatewayTimeout       time.Duration

	// PublicBaseURL is this service's externally reachable URL, used as the
	// webhook notification target handed to the provider.
	PublicBaseURL string

	RedisAddr        string
	NotifyWebhookURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4002"))

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	timeout, err := time.ParseDuration(getEnv("GATEWAY_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("GATEWAY_TIMEOUT must be a positive duration")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:        port,
		DatabaseURL: dbURL,
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: origins,

		GatewayProvider:      getEnv("GATEWAY_PROVIDER", "mercadopago"),
		GatewayBaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.mercadopago.com"),
		GatewayEnvironment:   getEnv("GATEWAY_ENVIRONMENT", "sandbox"),
		GatewayPublicKey:     getEnv("GATEWAY_PUBLIC_KEY", ""),
		GatewayAccessToken:   getEnv("GATEWAY_ACCESS_TOKEN", ""),
		GatewayWebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
		GatewayTimeout:       timeout,

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
