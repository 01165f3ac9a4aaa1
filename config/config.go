package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server config
	Port               string
	CORSAllowedOrigins []string

	// Database config
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string // SQLite database file path

	// Auth config
	JWTSecret        string
	JWTIssuer        string
	JWTExpiryMinutes int

	// Default back-office account created on first start
	DefaultResponsableEmail    string
	DefaultResponsableUsername string
	DefaultResponsablePassword string

	// App config
	Environment string
	LogLevel    string
	LogFormat   string

	// Payment config
	RazorpayKey     string
	RazorpaySecret  string
	PaymentCurrency string
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	overrideFromPG()

	AppConfig = Config{
		Port:                       getEnv("PORT", "5000"),
		CORSAllowedOrigins:         getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		DBDriver:                   getEnv("DB_DRIVER", "postgres"),
		DBHost:                     getEnv("DB_HOST", "localhost"),
		DBPort:                     getEnv("DB_PORT", "5432"),
		DBUser:                     getEnv("DB_USER", "postgres"),
		DBPassword:                 getEnv("DB_PASSWORD", "postgres"),
		DBName:                     getEnv("DB_NAME", "savdb"),
		DBSSLMode:                  getEnv("DB_SSLMODE", "disable"),
		DBPath:                     getEnv("DB_PATH", "./savdb.db"),
		JWTSecret:                  getEnv("JWT_SECRET", "savdesk_default_secret_key"),
		JWTIssuer:                  getEnv("JWT_ISSUER", "savdesk"),
		JWTExpiryMinutes:           getEnvAsInt("JWT_EXPIRY_MINUTES", 60),
		DefaultResponsableEmail:    getEnv("DEFAULT_RESPONSABLE_EMAIL", "sav@savdesk.local"),
		DefaultResponsableUsername: getEnv("DEFAULT_RESPONSABLE_USERNAME", "responsable"),
		DefaultResponsablePassword: getEnv("DEFAULT_RESPONSABLE_PASSWORD", "changeme123"),
		Environment:                getEnv("ENVIRONMENT", "development"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		RazorpayKey:                getEnv("RAZORPAY_KEY", ""),
		RazorpaySecret:             getEnv("RAZORPAY_SECRET", ""),
		PaymentCurrency:            getEnv("PAYMENT_CURRENCY", "EUR"),
	}
}

// Validate reports configuration that would make the server unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch c.DBDriver {
	case "postgres", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB driver: %s", c.DBDriver)
	}
	if c.JWTExpiryMinutes <= 0 {
		return errors.New("JWT_EXPIRY_MINUTES must be positive")
	}
	return nil
}

// PG* variables (managed postgres hosts) take precedence over DB_*.
func overrideFromPG() {
	pairs := map[string]string{
		"PGHOST":     "DB_HOST",
		"PGPORT":     "DB_PORT",
		"PGUSER":     "DB_USER",
		"PGPASSWORD": "DB_PASSWORD",
		"PGDATABASE": "DB_NAME",
	}
	for pg, db := range pairs {
		if v := os.Getenv(pg); v != "" {
			os.Setenv(db, v)
		}
	}
}

// Helper function to get environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get integer environment variable with fallback
func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetJWTExpiration returns JWT expiration time
func GetJWTExpiration() time.Duration {
	return AppConfig.JWTExpiration()
}

// JWTExpiration is the lifetime of issued tokens.
func (c Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpiryMinutes) * time.Minute
}

// IsDevelopment returns true if the application is running in development mode
func IsDevelopment() bool {
	return AppConfig.Environment == "development"
}
