package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level roster configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	BasePath        string   `yaml:"base_path"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// AuthConfig controls token issuance and the demo login credentials.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
	// Single demo credential pair. There is no user table behind login.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// DatabaseConfig selects the backing store. Either a full DSN is given, or
// for mysql the DSN is assembled from the individual connection fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres, sqlite
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Charset  string `yaml:"charset"`
}

// RateLimitConfig controls the sliding-window request limiter.
type RateLimitConfig struct {
	Window      string `yaml:"window"`
	MaxRequests int    `yaml:"max_requests"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			BasePath:        "/api/v1",
			ShutdownTimeout: "30s",
			CORSOrigins:     []string{"*"},
		},
		Auth: AuthConfig{
			JWTSecret:     "",
			TokenTTL:      "24h",
			AdminEmail:    "admin@school.com",
			AdminPassword: "admin123",
		},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			DSN:     "roster.db",
			Port:    3306,
			Charset: "utf8mb4",
		},
		RateLimit: RateLimitConfig{
			Window:      "1h",
			MaxRequests: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults. A missing
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// ResolveDSN returns the connection string for the configured driver. An
// explicit DSN always wins; otherwise a mysql DSN is assembled from the
// host/name/credentials/charset fields.
func (d DatabaseConfig) ResolveDSN() (string, error) {
	if d.DSN != "" {
		return d.DSN, nil
	}
	if d.Driver != "mysql" {
		return "", fmt.Errorf("database.dsn is required for driver %q", d.Driver)
	}
	if d.Host == "" || d.Name == "" {
		return "", fmt.Errorf("database.host and database.name are required when no dsn is set")
	}

	charset := d.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	port := d.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true",
		d.User, d.Password, d.Host, port, d.Name, charset), nil
}

// ShutdownTimeoutDuration parses the shutdown timeout, defaulting to 30s.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(s.ShutdownTimeout, 30*time.Second)
}

// TokenTTLDuration parses the token TTL, defaulting to 24h.
func (a AuthConfig) TokenTTLDuration() time.Duration {
	return parseDuration(a.TokenTTL, 24*time.Hour)
}

// WindowDuration parses the rate-limit window, defaulting to 1h.
func (r RateLimitConfig) WindowDuration() time.Duration {
	return parseDuration(r.Window, time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
