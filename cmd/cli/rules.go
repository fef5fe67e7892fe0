package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rampartlabs/rampart/pkg/rules"
)

// rulesCmd groups commands operating on detection rule files.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Work with detection rule files",
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Compile-check a rules YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := rules.LoadFile(args[0])
		if err != nil {
			return err
		}

		adversarial := 0
		for _, group := range set.Adversarial {
			adversarial += len(group.Patterns)
		}
		cues := 0
		for _, lexicon := range set.BiasLexicons {
			cues += len(lexicon)
		}

		fmt.Printf("%s compiles (version %s)\n", args[0], set.Version)
		fmt.Printf("  pii:           %d patterns\n", len(set.PII))
		fmt.Printf("  bias:          %d lexicons, %d cues\n", len(set.BiasLexicons), cues)
		fmt.Printf("  adversarial:   %d groups, %d patterns\n", len(set.Adversarial), adversarial)
		fmt.Printf("  hallucination: %d patterns\n", len(set.Hallucination))
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesLintCmd)
	rootCmd.AddCommand(rulesCmd)
}
