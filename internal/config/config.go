package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Log         LogConfig
	SMTP        SMTPConfig
	App         AppConfig
	Guest       GuestConfig
	Translation TranslationConfig
	Secrets     SecretsConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port           int
	Mode           string
	TrustedProxies []string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	URL          string // takes precedence over the discrete fields
	Host         string
	Port         int
	Username     string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	ResetTokenTTL time.Duration
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig holds outgoing mail settings. Empty credentials mean dev mode.
type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

// AppConfig holds settings about the frontend
type AppConfig struct {
	FrontendURL string
}

// GuestConfig holds the guest trial limits
type GuestConfig struct {
	MaxUses          int
	SessionTTL       time.Duration
	MaxSessionsPerIP int
	SystemTenantID   string
}

// TranslationConfig holds the translation provider settings
type TranslationConfig struct {
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// SecretsConfig holds the secret used to encrypt stored provider keys
type SecretsConfig struct {
	EncryptionSecret string
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from environment variables, reading a
// .env file first when one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-here")

	return &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8000),
			Mode:           getEnv("GIN_MODE", "release"),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			Username:     getEnv("DB_USERNAME", "postgres"),
			Password:     getEnv("DB_PASSWORD", "password"),
			DBName:       getEnv("DB_NAME", "planner"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			JWTSecret:     jwtSecret,
			TokenDuration: getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL: getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		SMTP: SMTPConfig{
			Server:   getEnv("SMTP_SERVER", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM_EMAIL", "noreply@planningtool.com"),
		},
		App: AppConfig{
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Guest: GuestConfig{
			MaxUses:          getEnvAsInt("GUEST_MAX_USES", 10),
			SessionTTL:       getEnvAsDuration("GUEST_SESSION_TTL", 24*time.Hour),
			MaxSessionsPerIP: getEnvAsInt("GUEST_MAX_SESSIONS_PER_IP", 5),
			SystemTenantID:   getEnv("SYSTEM_TENANT_ID", ""),
		},
		Translation: TranslationConfig{
			Model:       getEnv("TRANSLATION_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnv("TRANSLATION_BASE_URL", ""),
			Timeout:     getEnvAsDuration("TRANSLATION_TIMEOUT", 30*time.Second),
			MaxTokens:   getEnvAsInt("TRANSLATION_MAX_TOKENS", 500),
			Temperature: float32(getEnvAsFloat("TRANSLATION_TEMPERATURE", 0.3)),
		},
		Secrets: SecretsConfig{
			EncryptionSecret: getEnv("ENCRYPTION_SECRET", jwtSecret),
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
