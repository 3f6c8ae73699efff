package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
)

// optionFlags 期权公共参数
type optionFlags struct {
	spot, strike, maturity, rate, vol float64
	optionType                        string
}

func (o *optionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.spot, "spot", 100, "current stock price")
	cmd.Flags().Float64Var(&o.strike, "strike", 100, "strike price")
	cmd.Flags().Float64Var(&o.maturity, "maturity", 1, "time to maturity in years")
	cmd.Flags().Float64Var(&o.rate, "rate", 0.05, "risk-free rate (initial short rate for stochastic models)")
	cmd.Flags().Float64Var(&o.vol, "vol", 0.2, "stock volatility")
	cmd.Flags().StringVar(&o.optionType, "type", "call", "option type: call or put")
}

var (
	bsOpts optionFlags

	mcOpts      optionFlags
	mcPaths     int
	mcRateModel string

	compareOpts   optionFlags
	compareModels []string
)

var bsCmd = &cobra.Command{
	Use:   "bs",
	Short: "Black-Scholes price and Greeks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := svc.PriceBlackScholes(cmd.Context(), application.BlackScholesCommand{
			Spot:         bsOpts.spot,
			Strike:       bsOpts.strike,
			Maturity:     bsOpts.maturity,
			RiskFreeRate: bsOpts.rate,
			Volatility:   bsOpts.vol,
			OptionType:   bsOpts.optionType,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"model":       "Black-Scholes",
			"option_type": q.OptionType.Label(),
			"price":       q.Price,
			"greeks": map[string]float64{
				"delta": q.Greeks.Delta,
				"gamma": q.Greeks.Gamma,
				"theta": q.Greeks.Theta,
				"vega":  q.Greeks.Vega,
				"rho":   q.Greeks.Rho,
			},
		})
	},
}

var mcCmd = &cobra.Command{
	Use:   "mc",
	Short: "Monte Carlo price under a flat or stochastic short rate",
	Long: `Monte Carlo price of a European option.

Without --rate-model the short rate is held at --rate. With --rate-model
(vasicek, hull-white, black-derman-toy) the short rate starts at --rate and
follows the chosen model, and each path is discounted along its own rates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			q   *application.MonteCarloQuote
			err error
		)
		label := "Monte Carlo"
		if mcRateModel == "" {
			q, err = svc.PriceMonteCarlo(cmd.Context(), application.PriceMonteCarloCommand{
				Spot:         mcOpts.spot,
				Strike:       mcOpts.strike,
				Maturity:     mcOpts.maturity,
				RiskFreeRate: mcOpts.rate,
				Volatility:   mcOpts.vol,
				OptionType:   mcOpts.optionType,
				Simulations:  mcPaths,
				Seed:         seedFlag(cmd),
			})
		} else {
			q, err = svc.PriceWithRateModel(cmd.Context(), application.PriceWithRateModelCommand{
				Spot:            mcOpts.spot,
				Strike:          mcOpts.strike,
				Maturity:        mcOpts.maturity,
				InitialRate:     mcOpts.rate,
				StockVolatility: mcOpts.vol,
				OptionType:      mcOpts.optionType,
				RateModel:       mcRateModel,
				Simulations:     mcPaths,
				Seed:            seedFlag(cmd),
			})
			if err == nil {
				label = application.ModelLabel(q.Result.RateModel)
			}
		}
		if err != nil {
			return err
		}

		res := q.Result
		out := map[string]any{
			"model":                  label,
			"option_type":            q.OptionType.Label(),
			"price":                  res.Price,
			"std_error":              res.StdError,
			"confidence_interval_95": []float64{res.CILow, res.CIHigh},
			"n_simulations":          res.Paths,
			"n_steps":                res.Steps,
			"seed":                   q.Seed,
		}
		if res.RateModel != "" {
			out["rate_model"] = res.RateModel
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Price one option under several models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmp, err := svc.Compare(cmd.Context(), application.CompareCommand{
			Spot:         compareOpts.spot,
			Strike:       compareOpts.strike,
			Maturity:     compareOpts.maturity,
			RiskFreeRate: compareOpts.rate,
			Volatility:   compareOpts.vol,
			OptionType:   compareOpts.optionType,
			Models:       compareModels,
			Seed:         seedFlag(cmd),
		})
		if err != nil {
			return err
		}

		type row struct {
			Model string  `json:"model"`
			Price float64 `json:"price"`
		}
		rows := make([]row, 0, len(cmp.Entries))
		for _, e := range cmp.Entries {
			rows = append(rows, row{Model: e.Name, Price: e.Price})
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"option_type": cmp.OptionType.Label(),
			"comparison":  rows,
		})
	},
}

func init() {
	bsOpts.bind(bsCmd)

	mcOpts.bind(mcCmd)
	mcCmd.Flags().IntVarP(&mcPaths, "paths", "n", 10000, "number of simulated paths")
	mcCmd.Flags().StringVar(&mcRateModel, "rate-model", "", "stochastic short-rate model (empty for a flat rate)")

	compareOpts.bind(compareCmd)
	compareCmd.Flags().StringSliceVar(&compareModels, "models", nil,
		"models to compare: "+strings.Join([]string{"black-scholes", "monte-carlo", "vasicek", "hull-white", "black-derman-toy"}, ", "))
}
