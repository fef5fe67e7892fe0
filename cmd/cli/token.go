package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rampartlabs/rampart/internal/infrastructure/crypto"
	"github.com/rampartlabs/rampart/internal/infrastructure/secrets"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// tokenCmd groups commands for admin-plane bearer tokens.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Admin bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint an admin bearer token from the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}

		secret := cfg.Server.AdminJWTSecret
		if secret == "" && cfg.Vault.Enabled {
			provider, appErr := secrets.NewVaultProvider(cfg.Vault, nil, logger.NewNoopLogger())
			if appErr != nil {
				return appErr
			}
			secret, err = provider.GetSecret(cmd.Context(), secrets.AdminKeyPath, secrets.AdminKeyField)
			if err != nil {
				return err
			}
		}

		ttl, _ := cmd.Flags().GetDuration("ttl")
		manager, appErr := crypto.NewAdminTokenManager(secret, ttl, logger.NewNoopLogger())
		if appErr != nil {
			return appErr
		}
		token, expiresAt, appErr := manager.Issue(cmd.Context())
		if appErr != nil {
			return appErr
		}

		// The token alone goes to stdout so it can be piped or captured.
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().Duration("ttl", 0, "Token lifetime (default 1h)")

	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}
