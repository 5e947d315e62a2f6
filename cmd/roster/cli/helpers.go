package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/rosterapi/roster/internal/config"
	"github.com/rosterapi/roster/internal/storage"
)

// loadConfig reads the YAML config file viper located (or the defaults when
// none exists) and applies environment/flag overrides for the keys viper
// tracks.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return cfg, err
	}

	if v := viper.GetString("server.host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetInt("server.port"); v != 0 {
		cfg.Server.Port = v
	}
	if v := viper.GetString("auth.jwt_secret"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := viper.GetString("database.driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("database.dsn"); v != "" {
		cfg.Database.DSN = v
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the configured backing store.
func openStore(cfg config.Config) (*storage.Store, error) {
	dsn, err := cfg.Database.ResolveDSN()
	if err != nil {
		return nil, err
	}
	store, err := storage.New(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}
