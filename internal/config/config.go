// Package config provides configuration management for the application.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tax-credit-engine/internal/models"
)

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion string
	S3Bucket  string

	// Database. DBURL, when set, wins over the individual fields.
	DBURL      string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBMaxConns int

	// Cache
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// SES
	SESSenderEmail string
	DashboardURL   string

	// Deduction limits
	DeductionCombinedCap float64
	Deduction80DCap      float64

	// Application
	Port     string
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion: getEnv("AWS_REGION", "ap-south-1"),
		S3Bucket:  getEnv("S3_BUCKET", "tax-credit-uploads-dev"),

		// Database
		DBURL:      getEnv("DATABASE_URL", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", "tax_credit"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 10),

		// Cache
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 900)) * time.Second,

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),
		DashboardURL:   getEnv("DASHBOARD_URL", "http://localhost:3000"),

		// Deduction limits
		DeductionCombinedCap: getEnvFloat("DEDUCTION_COMBINED_CAP", models.DefaultCombinedCap),
		Deduction80DCap:      getEnvFloat("DEDUCTION_80D_CAP", models.Default80DCap),

		// Application
		Port:     getEnv("PORT", "8080"),
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DeductionCombinedCap < 0 {
		return nil, models.NewValidationError("DEDUCTION_COMBINED_CAP", "cannot be negative")
	}
	if cfg.Deduction80DCap < 0 {
		return nil, models.NewValidationError("DEDUCTION_80D_CAP", "cannot be negative")
	}
	if cfg.DBMaxConns < 1 {
		return nil, models.NewValidationError("DB_MAX_CONNS", "must be at least 1")
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string. SSL is required
// everywhere except a local server.
func (c *Config) DatabaseURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}

	sslMode := "require"
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// DeductionRules returns the deduction caps the tax engine should enforce.
func (c *Config) DeductionRules() models.DeductionRules {
	return models.NewDeductionRules(c.DeductionCombinedCap, c.Deduction80DCap)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
