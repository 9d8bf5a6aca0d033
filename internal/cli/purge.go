package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tokenwatch/internal/app"
)

var (
	purgeRetention time.Duration
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete journaled alerts older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeRetention <= 0 {
			return fmt.Errorf("--retention must be greater than zero")
		}

		opts := app.PurgeOptions{
			Retention: purgeRetention,
		}

		return getApp().Purge(cmd.Context(), opts)
	},
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeRetention, "retention", 90*24*time.Hour, "Keep alerts newer than this duration")
}
