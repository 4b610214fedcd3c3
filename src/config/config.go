package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-to-a-long-random-jwt-secret-of-32-bytes"

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	JWTSecret          string
	AuthDisabled       bool
	AllowedOrigins     []string
	MaxUploadSizeBytes int64

	// Import thresholds
	ImportErrorRatio        float64
	ImportMaxReportedErrors int

	PositionCacheTTL time.Duration

	// Quote collaborator used to fill live market fields
	PriceSessionURL     string
	PriceQuoteBaseURL   string
	PriceRequestTimeout time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int
}

var Cfg *AppConfig

// Default returns the configuration used when no environment is set.
func Default() *AppConfig {
	return &AppConfig{
		Port:                    "8080",
		DatabasePath:            "./tradebook.db",
		LogLevel:                "info",
		JWTSecret:               defaultJWTSecret,
		AllowedOrigins:          []string{"http://localhost:3000"},
		MaxUploadSizeBytes:      10 * 1024 * 1024,
		ImportErrorRatio:        0.5,
		ImportMaxReportedErrors: 10,
		PositionCacheTTL:        5 * time.Minute,
		PriceSessionURL:         "https://finance.yahoo.com/quote/SPY",
		PriceQuoteBaseURL:       "https://query2.finance.yahoo.com",
		PriceRequestTimeout:     20 * time.Second,
		RateLimitPerSecond:      10,
		RateLimitBurst:          30,
	}
}

func LoadConfig() {
	if errEnv := godotenv.Load(); errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	d := Default()

	jwtSecret := getEnv("JWT_SECRET", d.JWTSecret)
	if jwtSecret == defaultJWTSecret {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	errorRatio := getEnvAsFloat("IMPORT_ERROR_RATIO", d.ImportErrorRatio)
	if errorRatio <= 0 || errorRatio > 1 {
		log.Printf("WARNING: IMPORT_ERROR_RATIO must be in (0,1], got %v. Using default %v.", errorRatio, d.ImportErrorRatio)
		errorRatio = d.ImportErrorRatio
	}

	Cfg = &AppConfig{
		Port:                    getEnv("PORT", d.Port),
		DatabasePath:            getEnv("DATABASE_PATH", d.DatabasePath),
		LogLevel:                getEnv("LOG_LEVEL", d.LogLevel),
		JWTSecret:               jwtSecret,
		AuthDisabled:            getEnvAsBool("AUTH_DISABLED", false),
		AllowedOrigins:          getEnvAsList("ALLOWED_ORIGINS", d.AllowedOrigins),
		MaxUploadSizeBytes:      getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", d.MaxUploadSizeBytes),
		ImportErrorRatio:        errorRatio,
		ImportMaxReportedErrors: getEnvAsInt("IMPORT_MAX_REPORTED_ERRORS", d.ImportMaxReportedErrors),
		PositionCacheTTL:        getEnvAsDuration("POSITION_CACHE_TTL", d.PositionCacheTTL),
		PriceSessionURL:         getEnv("PRICE_SESSION_URL", d.PriceSessionURL),
		PriceQuoteBaseURL:       strings.TrimRight(getEnv("PRICE_QUOTE_BASE_URL", d.PriceQuoteBaseURL), "/"),
		PriceRequestTimeout:     getEnvAsDuration("PRICE_REQUEST_TIMEOUT", d.PriceRequestTimeout),
		RateLimitPerSecond:      getEnvAsFloat("RATE_LIMIT_PER_SECOND", d.RateLimitPerSecond),
		RateLimitBurst:          getEnvAsInt("RATE_LIMIT_BURST", d.RateLimitBurst),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, AuthDisabled=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.AuthDisabled)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
