package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tokenwatch/internal/app"
)

var (
	simulateToken     string
	simulateThreshold float64
	simulateStart     float64
	simulateSteps     int
	simulateStepPct   float64
	simulateSeed      int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive synthetic random-walk ticks through the monitoring pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		opts := app.SimulateOptions{
			Token:        simulateToken,
			ThresholdPct: simulateThreshold,
			StartPrice:   simulateStart,
			Steps:        simulateSteps,
			MaxStepPct:   simulateStepPct,
			Seed:         simulateSeed,
		}

		return getApp().Simulate(ctx, opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateToken, "token", "SOL", "Token to simulate")
	simulateCmd.Flags().Float64Var(&simulateThreshold, "threshold", 2.0, "Alert threshold in percent")
	simulateCmd.Flags().Float64Var(&simulateStart, "start", 100.0, "Starting price")
	simulateCmd.Flags().IntVar(&simulateSteps, "steps", 500, "Number of ticks to generate")
	simulateCmd.Flags().Float64Var(&simulateStepPct, "step-pct", 1.0, "Maximum per-tick move in percent")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "Random seed (0 uses the current time)")
}
