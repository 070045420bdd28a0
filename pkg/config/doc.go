// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	LMSAUTH_HOST="0.0.0.0"
//	LMSAUTH_PORT="8080"
//	LMSAUTH_HEALTH_PORT="9090"
//	LMSAUTH_READ_TIMEOUT="15s"
//	LMSAUTH_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	LMSAUTH_POSTGRES_URL="postgres://localhost/lms"
//	LMSAUTH_POSTGRES_MAX_CONNS="20"
//
// Cache settings:
//
//	LMSAUTH_CACHE_BACKEND="redis"  # redis, memory
//	LMSAUTH_REDIS_ADDR="localhost:6379"
//	LMSAUTH_REDIS_DB="0"
//	LMSAUTH_MEMORY_CACHE_SIZE="4096"
//
// Relationship service settings:
//
//	LMSAUTH_RELATIONSHIP_URL="http://star-access:8000"
//	LMSAUTH_RELATIONSHIP_TIMEOUT="5s"
//
// Reconcile settings:
//
//	LMSAUTH_RECONCILE_ON_BOOT="true"
//	LMSAUTH_RECONCILE_SCHEDULE="0 4 * * *"  # empty disables the schedule
//
// Logging:
//
//	LMSAUTH_LOG_LEVEL="info"  # debug, info, warn, error
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Cache: %s\n", cfg.Cache.Backend)
//
// # Related Packages
//
//   - pkg/authcache: Uses cache configuration
//   - pkg/relationship: Uses relationship service configuration
package config
