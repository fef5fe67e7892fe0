package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/infrastructure/persistence/postgres"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// configPath is the optional config file shared by every subcommand. Empty
// means the default search path plus RAMPART_* environment variables.
var configPath string

// rootCmd represents the base command when the `rampart-admin` binary is
// called without any subcommands. It provides the entry point for the entire
// CLI application.
// rootCmd 代表在没有任何子命令的情况下调用 `rampart-admin` 二进制文件时的
// 基本命令。它为整个 CLI 应用程序提供入口点。
var rootCmd = &cobra.Command{
	Use:   "rampart-admin",
	Short: "A CLI tool for administering the Rampart risk mitigation service.",
	Long: `rampart-admin is a command-line interface for performing administrative
tasks on the Rampart service, such as provisioning tenants, linting detection
rules, validating configuration and verifying the audit trail.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the CLI application. It adds all child
// commands to the root command, parses the command-line arguments, and
// executes the appropriate command. If an error occurs, it prints the error
// and exits.
// Execute 是 CLI 应用程序的主入口点。
// 它将所有子命令添加到根命令中，解析命令行参数，并执行相应的命令。
// 如果发生错误，它会打印错误并退出。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ./config.yaml, /etc/rampart/config.yaml)")
}

// loadCLIConfig resolves configuration the same way the server does, honoring
// the --config flag when given.
func loadCLIConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, appErr := config.LoadConfigFile(configPath)
		if appErr != nil {
			return nil, appErr
		}
		return cfg, nil
	}
	cfg, appErr := config.LoadConfig()
	if appErr != nil {
		return nil, appErr
	}
	return cfg, nil
}

// openDatabase dials postgres with a silent logger so command output stays
// clean.
func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.DBConnection, error) {
	db, appErr := postgres.NewDBConnection(ctx, &cfg.Database, logger.NewNoopLogger())
	if appErr != nil {
		return nil, appErr
	}
	return db, nil
}
