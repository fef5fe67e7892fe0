package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rampart-admin version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rampart-admin %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
