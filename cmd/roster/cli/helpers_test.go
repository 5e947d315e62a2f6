package cli

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("ROSTER_AUTH_JWT_SECRET", "from-env")
	t.Setenv("ROSTER_DATABASE_DRIVER", "postgres")
	t.Setenv("ROSTER_SERVER_PORT", "9191")

	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	// Nested keys must reach their dotted viper equivalents.
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("jwt secret: got %q, want from-env", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("database driver: got %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("server port: got %d, want 9191", cfg.Server.Port)
	}
}

func TestLoadConfigDefaultsWithoutOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.BasePath != "/api/v1" {
		t.Errorf("defaults: %+v", cfg.Server)
	}
	if cfg.Auth.AdminEmail != "admin@school.com" {
		t.Errorf("admin email: got %q", cfg.Auth.AdminEmail)
	}
}
