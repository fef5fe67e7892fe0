package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rampartlabs/rampart/internal/config"
)

// configCmd groups commands operating on service configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with service configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Load a config file and run the same validation the server does",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, appErr := config.LoadConfigFile(args[0])
		if appErr != nil {
			return appErr
		}
		fmt.Printf("%s is valid\n", args[0])
		fmt.Printf("  listen:       %s:%d\n", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("  quota driver: %s\n", cfg.Quota.Driver)
		fmt.Printf("  audit driver: %s\n", cfg.Audit.Driver)
		fmt.Printf("  vault:        %t\n", cfg.Vault.Enabled)
		fmt.Printf("  kafka:        %t\n", cfg.Kafka.Enabled)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
