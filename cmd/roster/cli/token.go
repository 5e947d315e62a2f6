package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rosterapi/roster/internal/service"
)

func newTokenCmd() *cobra.Command {
	var (
		email string
		role  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for testing",
		Long: `Mint a signed bearer token using the configured signing secret. When no
secret is configured, you are prompted for one. The token is printed to
stdout, ready for an Authorization: Bearer header.`,
		Example: `  roster token
  roster token --email admin@school.com --ttl 1h
  ROSTER_AUTH_JWT_SECRET=s3cret roster token`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, email, role, ttl)
		},
	}

	cmd.Flags().StringVar(&email, "email", "admin@school.com", "Email claim for the token")
	cmd.Flags().StringVar(&role, "role", "admin", "Role claim for the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func runToken(cmd *cobra.Command, email, role string, ttl time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Signing secret: ")
		secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		secret = strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return fmt.Errorf("signing secret is required")
		}
	}

	authSvc := service.NewAuthService(secret, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, ttl)
	token, err := authSvc.IssueToken(1, email, role)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
