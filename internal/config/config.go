package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// Mercado Pago gateway.
	MPAccessToken     string
	MPBaseURL         string
	MPSuccessURL      string
	MPFailureURL      string
	MPPendingURL      string
	MPNotificationURL string

	// Absolute links for generated deliverables.
	SiteBaseURL    string
	WhatsAppNumber string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	siteBaseURL := strings.TrimRight(getenv("SITE_BASE_URL", "https://xtreino.com.br"), "/")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "xtreino"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		MPAccessToken:     strings.TrimSpace(getenv("MP_ACCESS_TOKEN", "")),
		MPBaseURL:         strings.TrimRight(getenv("MP_BASE_URL", "https://api.mercadopago.com"), "/"),
		MPSuccessURL:      getenv("MP_SUCCESS_URL", siteBaseURL+"/comprar-tokens.html?status=success"),
		MPFailureURL:      getenv("MP_FAILURE_URL", siteBaseURL+"/comprar-tokens.html?status=failure"),
		MPPendingURL:      getenv("MP_PENDING_URL", siteBaseURL+"/comprar-tokens.html?status=pending"),
		MPNotificationURL: getenv("MP_NOTIFICATION_URL", siteBaseURL+"/api/payments/webhook"),

		SiteBaseURL:    siteBaseURL,
		WhatsAppNumber: getenv("WHATSAPP_NUMBER", "5511999999999"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "xtreino"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
