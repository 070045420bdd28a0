package config

import (
	"os"
	"testing"
	"time"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{
			name:         "returns true for 'true'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "true",
			want:         true,
		},
		{
			name:         "returns true for '1'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "1",
			want:         true,
		},
		{
			name:         "returns false for 'false'",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_NOT_SET",
			defaultValue: true,
			envValue:     "",
			want:         true,
		},
		{
			name:         "returns true for 'TRUE' (case insensitive)",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "TRUE",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns parsed int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			want:         42,
		},
		{
			name:         "returns default for invalid int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "invalid",
			want:         10,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOT_SET",
			defaultValue: 10,
			envValue:     "",
			want:         10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns parsed duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "returns default for invalid duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "invalid",
			want:         10 * time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadServerConfig tests the loadServerConfig function
func TestLoadServerConfig(t *testing.T) {
	// Save current env and restore after test
	originalEnv := map[string]string{
		"LMSAUTH_HOST":             os.Getenv("LMSAUTH_HOST"),
		"LMSAUTH_PORT":             os.Getenv("LMSAUTH_PORT"),
		"LMSAUTH_READ_TIMEOUT":     os.Getenv("LMSAUTH_READ_TIMEOUT"),
		"LMSAUTH_WRITE_TIMEOUT":    os.Getenv("LMSAUTH_WRITE_TIMEOUT"),
		"LMSAUTH_IDLE_TIMEOUT":     os.Getenv("LMSAUTH_IDLE_TIMEOUT"),
		"LMSAUTH_SHUTDOWN_TIMEOUT": os.Getenv("LMSAUTH_SHUTDOWN_TIMEOUT"),
		"LMSAUTH_HEALTH_PORT":      os.Getenv("LMSAUTH_HEALTH_PORT"),
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	tests := []struct {
		name string
		env  map[string]string
		want ServerConfig
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: ServerConfig{
				Host:            "0.0.0.0",
				Port:            "8080",
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    15 * time.Second,
				IdleTimeout:     60 * time.Second,
				ShutdownTimeout: 30 * time.Second,
				HealthPort:      "9090",
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"LMSAUTH_HOST":             "localhost",
				"LMSAUTH_PORT":             "3000",
				"LMSAUTH_READ_TIMEOUT":     "30s",
				"LMSAUTH_WRITE_TIMEOUT":    "30s",
				"LMSAUTH_IDLE_TIMEOUT":     "120s",
				"LMSAUTH_SHUTDOWN_TIMEOUT": "60s",
				"LMSAUTH_HEALTH_PORT":      "9091",
			},
			want: ServerConfig{
				Host:            "localhost",
				Port:            "3000",
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 60 * time.Second,
				HealthPort:      "9091",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all env vars
			for k := range originalEnv {
				os.Unsetenv(k)
			}

			// Set test env vars
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			got := loadServerConfig()
			if got != tt.want {
				t.Errorf("loadServerConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestLoadCacheConfig tests the loadCacheConfig function
func TestLoadCacheConfig(t *testing.T) {
	// Save current env and restore after test
	envVars := []string{
		"LMSAUTH_CACHE_BACKEND",
		"LMSAUTH_REDIS_ADDR",
		"LMSAUTH_REDIS_PASSWORD",
		"LMSAUTH_REDIS_DB",
		"LMSAUTH_MEMORY_CACHE_SIZE",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads default config", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		cfg := loadCacheConfig()
		if cfg.Backend != "redis" {
			t.Errorf("Backend = %v, want redis", cfg.Backend)
		}
		if cfg.MemorySize != 4096 {
			t.Errorf("MemorySize = %v, want 4096", cfg.MemorySize)
		}
	})

	t.Run("loads redis config from env", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		os.Setenv("LMSAUTH_REDIS_ADDR", "redis:6379")
		os.Setenv("LMSAUTH_REDIS_PASSWORD", "password")
		os.Setenv("LMSAUTH_REDIS_DB", "1")

		cfg := loadCacheConfig()
		if cfg.RedisAddr != "redis:6379" {
			t.Errorf("RedisAddr = %v, want redis:6379", cfg.RedisAddr)
		}
		if cfg.RedisPassword != "password" {
			t.Errorf("RedisPassword = %v, want password", cfg.RedisPassword)
		}
		if cfg.RedisDB != 1 {
			t.Errorf("RedisDB = %v, want 1", cfg.RedisDB)
		}
	})

	t.Run("backend is lowercased", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		os.Setenv("LMSAUTH_CACHE_BACKEND", "Memory")

		cfg := loadCacheConfig()
		if cfg.Backend != "memory" {
			t.Errorf("Backend = %v, want memory", cfg.Backend)
		}
	})
}

// TestLoadRelationshipConfig tests the loadRelationshipConfig function
func TestLoadRelationshipConfig(t *testing.T) {
	envVars := []string{
		"LMSAUTH_RELATIONSHIP_URL",
		"LMSAUTH_RELATIONSHIP_TIMEOUT",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		cfg := loadRelationshipConfig()
		if cfg.BaseURL != "" {
			t.Errorf("BaseURL = %v, want empty", cfg.BaseURL)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		os.Setenv("LMSAUTH_RELATIONSHIP_URL", "http://star-access:8000")
		os.Setenv("LMSAUTH_RELATIONSHIP_TIMEOUT", "2s")

		cfg := loadRelationshipConfig()
		if cfg.BaseURL != "http://star-access:8000" {
			t.Errorf("BaseURL = %v, want http://star-access:8000", cfg.BaseURL)
		}
		if cfg.Timeout != 2*time.Second {
			t.Errorf("Timeout = %v, want 2s", cfg.Timeout)
		}
	})
}

// TestConfigValidate tests the Config.Validate method
func TestConfigValidate(t *testing.T) {
	validConfig := func() Config {
		return Config{
			Server: ServerConfig{
				Port:       "8080",
				HealthPort: "9090",
			},
			Database: DatabaseConfig{
				URL: "postgres://localhost/lms",
			},
			Cache: CacheConfig{
				Backend:   "redis",
				RedisAddr: "localhost:6379",
			},
			Relationship: RelationshipConfig{
				BaseURL: "http://star-access:8000",
				Timeout: 5 * time.Second,
			},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("missing server port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "server port is required" {
			t.Errorf("Validate() error = %v, want 'server port is required'", err.Error())
		}
	})

	t.Run("missing health port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.HealthPort = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("same server and health port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.HealthPort = cfg.Server.Port
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "server port and health port must be different" {
			t.Errorf("Validate() error = %v, want 'server port and health port must be different'", err.Error())
		}
	})

	t.Run("missing postgres url", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.URL = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "postgres URL is required" {
			t.Errorf("Validate() error = %v, want 'postgres URL is required'", err.Error())
		}
	})

	t.Run("redis backend without address", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.RedisAddr = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "redis address is required for the redis cache backend" {
			t.Errorf("Validate() error = %v, want 'redis address is required for the redis cache backend'", err.Error())
		}
	})

	t.Run("valid memory backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache = CacheConfig{Backend: "memory", MemorySize: 1024}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("memory backend with zero size", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache = CacheConfig{Backend: "memory", MemorySize: 0}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("invalid cache backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Backend = "memcached"
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		expectedErr := "invalid cache backend: memcached (must be redis or memory)"
		if err != nil && err.Error() != expectedErr {
			t.Errorf("Validate() error = %v, want %v", err.Error(), expectedErr)
		}
	})

	t.Run("relationship url without timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Relationship.Timeout = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("no relationship service configured", func(t *testing.T) {
		cfg := validConfig()
		cfg.Relationship = RelationshipConfig{}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})
}

// TestLoadConfig tests the LoadConfig function
func TestLoadConfig(t *testing.T) {
	// Save current env and restore after test
	envVars := []string{
		"LMSAUTH_PORT",
		"LMSAUTH_HEALTH_PORT",
		"LMSAUTH_POSTGRES_URL",
		"LMSAUTH_CACHE_BACKEND",
		"LMSAUTH_REDIS_ADDR",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "valid config",
			env: map[string]string{
				"LMSAUTH_POSTGRES_URL": "postgres://localhost/lms",
				"LMSAUTH_REDIS_ADDR":   "localhost:6379",
			},
			wantErr: false,
		},
		{
			name: "memory cache needs no redis",
			env: map[string]string{
				"LMSAUTH_POSTGRES_URL":  "postgres://localhost/lms",
				"LMSAUTH_CACHE_BACKEND": "memory",
			},
			wantErr: false,
		},
		{
			name:    "missing postgres url",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "invalid config - same ports",
			env: map[string]string{
				"LMSAUTH_POSTGRES_URL": "postgres://localhost/lms",
				"LMSAUTH_REDIS_ADDR":   "localhost:6379",
				"LMSAUTH_PORT":         "8080",
				"LMSAUTH_HEALTH_PORT":  "8080",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all env vars
			for _, k := range envVars {
				os.Unsetenv(k)
			}

			// Set test env vars
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("LoadConfig() returned nil config without error")
			}
		})
	}
}
