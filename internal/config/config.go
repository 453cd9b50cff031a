package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	FilterScopeGlobal  = "global"
	FilterScopeSession = "session"
)

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Filter   FilterConfig
	Cache    CacheConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	CSVFile     string
	Encoding    string
	LoadTimeout time.Duration
}

type FilterConfig struct {
	Scope        string
	SessionLimit int
	SessionTTL   time.Duration
}

type CacheConfig struct {
	Enabled       bool
	Size          int
	TTL           time.Duration
	SweepInterval time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit   bool
	EnableCompression bool
	RateLimitRPS      int
	RateLimitBurst    int
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureCookies     bool
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are applied first; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			CSVFile:     getEnvString("CSV_FILE", "Sample_Store.csv"),
			Encoding:    strings.ToLower(getEnvString("CSV_ENCODING", "latin1")),
			LoadTimeout: getEnvDuration("CSV_LOAD_TIMEOUT", 5*time.Minute),
		},
		Filter: FilterConfig{
			Scope:        strings.ToLower(getEnvString("FILTER_SCOPE", FilterScopeGlobal)),
			SessionLimit: getEnvInt("FILTER_SESSION_LIMIT", 10000),
			SessionTTL:   getEnvDuration("FILTER_SESSION_TTL", 30*24*time.Hour),
		},
		Cache: CacheConfig{
			Enabled:       getEnvBool("CACHE_ENABLED", true),
			Size:          getEnvInt("CACHE_SIZE", 256),
			TTL:           getEnvDuration("CACHE_TTL", 10*time.Minute),
			SweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit:   getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			EnableCompression: getEnvBool("SECURITY_COMPRESSION_ENABLED", true),
			RateLimitRPS:      getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:    getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:    getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:    getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			SecureCookies:     getEnvBool("SECURITY_SECURE_COOKIES", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Dataset.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	validEncodings := []string{"utf-8", "utf8", "latin1", "iso-8859-1", "windows-1252", "cp1252"}
	if !contains(validEncodings, c.Dataset.Encoding) {
		return fmt.Errorf("invalid CSV encoding %q, must be one of: %s", c.Dataset.Encoding, strings.Join(validEncodings, ", "))
	}

	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("CSV load timeout must be positive")
	}

	validScopes := []string{FilterScopeGlobal, FilterScopeSession}
	if !contains(validScopes, c.Filter.Scope) {
		return fmt.Errorf("invalid filter scope %q, must be one of: %s", c.Filter.Scope, strings.Join(validScopes, ", "))
	}

	if c.Filter.Scope == FilterScopeSession && c.Filter.SessionLimit <= 0 {
		return fmt.Errorf("filter session limit must be positive when filters are per session")
	}

	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive when the cache is enabled")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
