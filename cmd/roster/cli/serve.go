package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rosterapi/roster/internal/server"
	"github.com/rosterapi/roster/internal/service"
)

const banner = `
 ____  ___  ____ _____ _____ ____
|  _ \/ _ \/ ___|_   _| ____|  _ \
| |_) | | | \___ \| | |  _| | |_) |
|  _ <| |_| |___) | | | |___|  _ <
|_| \_\\___/|____/|_| |_____|_| \_\
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the student API server",
		Long:  "Start the HTTP server that exposes the student management REST API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("store initialized", "driver", cfg.Database.Driver)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = "roster-dev-secret-change-me"
		logger.Warn("auth.jwt_secret not set, using the development secret")
	}
	authSvc := service.NewAuthService(secret, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.TokenTTLDuration())

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		BasePath:        cfg.Server.BasePath,
		ShutdownTimeout: cfg.Server.ShutdownTimeoutDuration(),
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitMax:    cfg.RateLimit.MaxRequests,
		RateLimitWindow: cfg.RateLimit.WindowDuration(),
		Version:         appVersion,
	}

	srv := server.New(srvCfg, store, authSvc, logger)
	return srv.ListenAndServe()
}
