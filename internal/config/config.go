package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote backend (Supabase REST). Both must be set for the remote to
	// be used; leaving them empty runs the app against the local store.
	SupabaseURL     string
	SupabaseAnonKey string

	// Local fallback store
	SQLiteDBPath string

	// AMQP, optional: enables background replay of fallback writes
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Reporting
	DefaultHourlyRate float64
	ReportCacheTTL    time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tempo.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tempo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_records"),

		DefaultHourlyRate: getEnvFloat("DEFAULT_HOURLY_RATE", 50),
		ReportCacheTTL:    getEnvDuration("REPORT_CACHE_TTL", 30*time.Second),
	}

	return cfg
}

// RemoteEnabled reports whether the remote backend is fully configured.
func (c *Config) RemoteEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// AMQPEnabled reports whether background sync is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// A half-configured remote is almost always a deployment mistake, so
	// it fails validation instead of silently running local-only.
	if c.SupabaseURL != "" || c.SupabaseAnonKey != "" {
		if c.SupabaseURL == "" {
			errors = append(errors, "SUPABASE_URL must be set when SUPABASE_ANON_KEY is provided")
		}
		if c.SupabaseAnonKey == "" {
			errors = append(errors, "SUPABASE_ANON_KEY must be set when SUPABASE_URL is provided")
		}
	}
	if c.SupabaseURL != "" {
		if parsedURL, err := url.Parse(c.SupabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Supabase URL '%s': %v", c.SupabaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid Supabase URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if c.SQLiteDBPath != ":memory:" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DefaultHourlyRate < 0 {
		errors = append(errors, fmt.Sprintf("invalid default hourly rate %v: must not be negative", c.DefaultHourlyRate))
	}
	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
