// Package cmd 提供 pricingctl 命令行：在本地直接调用定价服务，不经过 HTTP
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

var (
	cfgFile string
	verbose bool
	seed    uint64

	svc *application.PricingService
)

var rootCmd = &cobra.Command{
	Use:   "pricingctl",
	Short: "Price European options and simulate short-rate paths",
	Long: `pricingctl runs the option pricing engine locally.

Examples:
  pricingctl bs --spot 100 --strike 105 --maturity 1 --rate 0.05 --vol 0.2
  pricingctl mc --spot 100 --strike 105 --paths 50000 --seed 7
  pricingctl mc --rate-model hull-white --rate 0.03 --vol 0.25
  pricingctl rates --model vasicek --horizon 2 --steps 24 --paths 3
  pricingctl compare --models black-scholes,monte-carlo,vasicek
  pricingctl bond --rate 0.05 --maturity 5`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute 运行 CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed (config default when unset)")

	rootCmd.AddCommand(bsCmd, mcCmd, ratesCmd, compareCmd, bondCmd)
}

// setup 加载配置并构建定价服务；日志写 stderr，stdout 只输出结果
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithDefaults(cfgFile)
	if err != nil {
		return err
	}

	logCfg := logger.Config{Level: cfg.Logger.Level, Format: "text"}
	if verbose {
		logCfg.Level = "debug"
	}
	logger.SetGlobal(logger.New(logCfg, cmd.ErrOrStderr()))

	models, err := application.NewModelDefaults(cfg.RateModels)
	if err != nil {
		return err
	}
	svc = application.NewPricingService(application.Options{
		Models: models,
		Limits: application.Limits{
			MaxPaths:         cfg.Simulation.MaxPaths,
			MaxSteps:         cfg.Simulation.MaxSteps,
			MaxCells:         cfg.Simulation.MaxCells,
			ComparePaths:     cfg.Simulation.ComparePaths,
			CompareRatePaths: cfg.Simulation.CompareRatePaths,
		},
		DefaultSeed: cfg.Simulation.Seed,
	})
	return nil
}

// seedFlag 仅在显式传入 --seed 时覆盖默认种子
func seedFlag(cmd *cobra.Command) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	s := seed
	return &s
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
