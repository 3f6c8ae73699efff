package cmd

import (
	"github.com/spf13/cobra"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
)

var (
	ratesInitial float64
	ratesHorizon float64
	ratesSteps   int
	ratesPaths   int
	ratesModel   string

	bondRate     float64
	bondMaturity float64
	bondFace     float64
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Simulate short-rate paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sim, err := svc.SimulateRates(cmd.Context(), application.SimulateRatesCommand{
			InitialRate: ratesInitial,
			Horizon:     ratesHorizon,
			Steps:       ratesSteps,
			Paths:       ratesPaths,
			Model:       ratesModel,
			Seed:        seedFlag(cmd),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"model":       sim.Model,
			"seed":        sim.Seed,
			"time_points": sim.TimePoints,
			"paths":       sim.Paths,
		})
	},
}

var bondCmd = &cobra.Command{
	Use:   "bond",
	Short: "Vasicek zero-coupon bond price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := svc.PriceZeroCouponBond(cmd.Context(), application.ZeroCouponBondCommand{
			InitialRate: bondRate,
			Maturity:    bondMaturity,
			Face:        bondFace,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"model": "Vasicek",
			"price": q.Price,
			"parameters": map[string]float64{
				"speed":    q.Model.Speed,
				"long_run": q.Model.LongRun,
				"sigma":    q.Model.Sigma,
			},
		})
	},
}

func init() {
	ratesCmd.Flags().Float64Var(&ratesInitial, "initial-rate", 0.05, "initial short rate")
	ratesCmd.Flags().Float64Var(&ratesHorizon, "horizon", 1, "simulation horizon in years")
	ratesCmd.Flags().IntVar(&ratesSteps, "steps", 100, "number of time steps")
	ratesCmd.Flags().IntVar(&ratesPaths, "paths", 5, "number of paths")
	ratesCmd.Flags().StringVar(&ratesModel, "model", "vasicek", "vasicek, hull-white or black-derman-toy")

	bondCmd.Flags().Float64Var(&bondRate, "rate", 0.05, "initial short rate")
	bondCmd.Flags().Float64Var(&bondMaturity, "maturity", 1, "maturity in years")
	bondCmd.Flags().Float64Var(&bondFace, "face", application.DefaultFaceValue, "face value")
}
