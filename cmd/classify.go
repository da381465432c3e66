package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/address-classifier/internal/config"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <address>",
	Short: "Classify a single address",
	Long:  "Classifies one address and prints the result as JSON. Multiple arguments are joined with spaces.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initClassifier(ctx, config.ModeClassify)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Classifier.Classify(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
