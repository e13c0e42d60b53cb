package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cookies  CookieConfig
	Storage  StorageConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the token blacklist cache configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT token configuration.
// Tokens are signed with the private key and verified with the public key;
// the algorithm identifier must name an RSA signing method (RS256 by default).
type JWTConfig struct {
	PrivateKeyPEM string
	PublicKeyPEM  string
	Algorithm     string
	Host          string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// CookieConfig controls how token cookies are written
type CookieConfig struct {
	Secure bool
}

// StorageConfig holds S3/MinIO configuration for attachment files
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// CORSConfig holds allowed origins for the HTTP boundary
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "vote_be"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			PrivateKeyPEM: getEnv("AUTH_PRIVATE_KEY", ""),
			PublicKeyPEM:  getEnv("AUTH_PUBLIC_KEY", ""),
			Algorithm:     getEnv("AUTH_ALGORITHM", "RS256"),
			Host:          getEnv("APP_HOST", "localhost"),
			AccessTTL:     time.Duration(getIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
			RefreshTTL:    time.Duration(getIntEnv("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		},
		Cookies: CookieConfig{
			Secure: getBoolEnv("APP_SECURE_COOKIES", false),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:          getEnv("STORAGE_BUCKET", "vote-attachments"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:          getBoolEnv("STORAGE_USE_SSL", false),
		},
		CORS: CORSConfig{
			Origins: splitEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
	}
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.DBName +
		" sslmode=" + d.SSLMode
}

// AccessCookieMaxAge returns the access token cookie lifetime in seconds
func (j *JWTConfig) AccessCookieMaxAge() int {
	return int(j.AccessTTL.Seconds())
}

// RefreshCookieMaxAge returns the refresh token cookie lifetime in seconds
func (j *JWTConfig) RefreshCookieMaxAge() int {
	return int(j.RefreshTTL.Seconds())
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns an integer from an environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getBoolEnv returns a boolean from an environment variable or default
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

// splitEnv returns a comma-separated environment variable as a slice
func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
