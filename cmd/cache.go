package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the preview cache",
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired preview entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.DeleteExpiredPreviews(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("cache sweep complete", zap.Int("deleted", n))
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all preview entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.PurgePreviews(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("cache purge complete", zap.Int("deleted", n))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
