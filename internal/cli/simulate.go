package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulatePrior   float64
	simulateCurrent float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Simulate a consumption contraction and trigger the alert path",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrior <= 0 {
			return errors.New("--prior must be greater than 0")
		}

		prior := decimal.NewFromFloat(simulatePrior)
		current := decimal.NewFromFloat(simulateCurrent)
		return getApp().SimulateAlert(cmd.Context(), prior, current)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulatePrior, "prior", 0, "Prior month spend in dollars")
	simulateCmd.Flags().Float64Var(&simulateCurrent, "current", 0, "Current month spend in dollars")
}
