package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/logvaultdb/logvault/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations",
	}

	cmd.AddCommand(newAdminTokenCmd())

	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin JWT for the key-management API",
		Long: `Issue a signed bearer token for the /api/v1/admin endpoints. The token is
signed with auth.jwt_secret; the server must be configured with the same
secret to accept it.`,
		Example: `  logvault admin token --subject ops --ttl 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminToken(subject, ttl)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject, recorded in the token claims")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.admin_token_ttl or 24h)")

	return cmd
}

func runAdminToken(subject string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = 24 * time.Hour
		if raw := viper.GetString("auth.admin_token_ttl"); raw != "" {
			if d, err := time.ParseDuration(raw); err == nil {
				ttl = d
			}
		}
	}

	authSvc := service.NewAuthService(nil, jwtSecret(), nil)
	token, err := authSvc.IssueJWT(subject, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
