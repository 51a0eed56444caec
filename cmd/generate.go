package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var generateURL string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a preview for a single URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := env.Pipeline.Generate(ctx, generateURL)
		if err != nil {
			return err
		}

		zap.L().Info("preview generated",
			zap.String("url", generateURL),
			zap.Stringer("tier", record.Tier),
			zap.Float64("confidence", record.Confidence),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateURL, "url", "", "page URL (required)")
	generateCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(generateCmd)
}
