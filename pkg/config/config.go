package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Cache configuration
	Cache CacheConfig

	// Relationship service configuration
	Relationship RelationshipConfig

	// Reconcile configuration
	Reconcile ReconcileConfig

	// Logging
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// CacheConfig holds the aggregate cache settings. Backend is "redis" in
// production; "memory" runs the process without a Redis dependency.
type CacheConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MemorySize    int
}

// RelationshipConfig holds the upstream relationship service settings
type RelationshipConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ReconcileConfig controls permission registry reconciliation
type ReconcileConfig struct {
	OnBoot bool

	// Cron expression for periodic runs; empty disables the schedule.
	Schedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:       loadServerConfig(),
		Database:     loadDatabaseConfig(),
		Cache:        loadCacheConfig(),
		Relationship: loadRelationshipConfig(),
		Reconcile:    loadReconcileConfig(),
		LogLevel:     getEnv("LMSAUTH_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("LMSAUTH_HOST", "0.0.0.0"),
		Port:            getEnv("LMSAUTH_PORT", "8080"),
		ReadTimeout:     getEnvDuration("LMSAUTH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("LMSAUTH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("LMSAUTH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("LMSAUTH_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("LMSAUTH_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnv("LMSAUTH_POSTGRES_URL", ""),
		MaxOpenConns: getEnvInt("LMSAUTH_POSTGRES_MAX_CONNS", 20),
		MaxIdleConns: getEnvInt("LMSAUTH_POSTGRES_IDLE_CONNS", 5),
	}
}

// loadCacheConfig loads cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:       strings.ToLower(getEnv("LMSAUTH_CACHE_BACKEND", "redis")),
		RedisAddr:     getEnv("LMSAUTH_REDIS_ADDR", ""),
		RedisPassword: getEnv("LMSAUTH_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("LMSAUTH_REDIS_DB", 0),
		MemorySize:    getEnvInt("LMSAUTH_MEMORY_CACHE_SIZE", 4096),
	}
}

// loadRelationshipConfig loads relationship service configuration from environment
func loadRelationshipConfig() RelationshipConfig {
	return RelationshipConfig{
		BaseURL: getEnv("LMSAUTH_RELATIONSHIP_URL", ""),
		Timeout: getEnvDuration("LMSAUTH_RELATIONSHIP_TIMEOUT", 5*time.Second),
	}
}

// loadReconcileConfig loads reconcile configuration from environment
func loadReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		OnBoot:   getEnvBool("LMSAUTH_RECONCILE_ON_BOOT", true),
		Schedule: getEnv("LMSAUTH_RECONCILE_SCHEDULE", ""),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate database config
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	// Validate cache config based on backend
	switch c.Cache.Backend {
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis cache backend")
		}
	case "memory":
		if c.Cache.MemorySize <= 0 {
			return fmt.Errorf("memory cache size must be positive")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be redis or memory)", c.Cache.Backend)
	}

	// The relationship service is optional; without it role derivation
	// falls back to unconditional rules only.
	if c.Relationship.BaseURL != "" && c.Relationship.Timeout <= 0 {
		return fmt.Errorf("relationship timeout must be positive")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
