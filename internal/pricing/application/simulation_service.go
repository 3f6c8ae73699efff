package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"golang.org/x/sync/errgroup"
)

// SimulationService 蒙特卡洛定价与利率路径模拟
// 每次调用创建独立引擎，并发请求之间不共享随机数发生器。
type SimulationService struct {
	rt *runtime
}

type monteCarloKey struct {
	Spot, Strike, Maturity, Rate, Volatility float64
	Type                                     domain.OptionType
	Paths                                    int
	Seed                                     uint64
}

type rateModelKey struct {
	monteCarloKey
	Model domain.RateModel
	Name  domain.RateModelName
}

// PriceMonteCarlo 常数利率蒙特卡洛定价
func (s *SimulationService) PriceMonteCarlo(ctx context.Context, cmd PriceMonteCarloCommand) (*MonteCarloQuote, error) {
	optType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	opt := domain.OptionSpec{
		Spot:       cmd.Spot,
		Strike:     cmd.Strike,
		Maturity:   cmd.Maturity,
		Volatility: cmd.Volatility,
		Type:       optType,
	}
	if err := s.admit(opt, cmd.Simulations); err != nil {
		return nil, err
	}
	seed := s.rt.resolveSeed(cmd.Seed)

	key := monteCarloKey{cmd.Spot, cmd.Strike, cmd.Maturity, cmd.RiskFreeRate, cmd.Volatility, optType, cmd.Simulations, seed}
	return cached(ctx, s.rt, "monte-carlo", key, func() (*MonteCarloQuote, error) {
		var res *domain.PricingResult
		err := s.rt.run(ctx, "monte_carlo", string(domain.RegimeFlat), cmd.Simulations, func(ctx context.Context) error {
			engine, err := domain.NewMonteCarloEngine(cmd.Simulations, seed)
			if err != nil {
				return err
			}
			res, err = engine.PriceEuropeanOption(ctx, opt, cmd.RiskFreeRate)
			return err
		})
		if err != nil {
			return nil, err
		}
		return &MonteCarloQuote{OptionType: optType, Seed: seed, Result: *res}, nil
	})
}

// PriceWithRateModel 随机利率蒙特卡洛定价
func (s *SimulationService) PriceWithRateModel(ctx context.Context, cmd PriceWithRateModelCommand) (*MonteCarloQuote, error) {
	optType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	name, err := domain.ParseRateModelName(cmd.RateModel)
	if err != nil {
		return nil, err
	}
	model, err := s.rt.models.Model(name)
	if err != nil {
		return nil, err
	}
	opt := domain.OptionSpec{
		Spot:       cmd.Spot,
		Strike:     cmd.Strike,
		Maturity:   cmd.Maturity,
		Volatility: cmd.StockVolatility,
		Type:       optType,
	}
	if err := s.admit(opt, cmd.Simulations); err != nil {
		return nil, err
	}
	seed := s.rt.resolveSeed(cmd.Seed)

	key := rateModelKey{
		monteCarloKey: monteCarloKey{cmd.Spot, cmd.Strike, cmd.Maturity, cmd.InitialRate, cmd.StockVolatility, optType, cmd.Simulations, seed},
		Model:         model,
		Name:          name,
	}
	return cached(ctx, s.rt, "rate-model", key, func() (*MonteCarloQuote, error) {
		var res *domain.PricingResult
		err := s.rt.run(ctx, "rate_model", string(name), cmd.Simulations, func(ctx context.Context) error {
			engine, err := domain.NewMonteCarloEngine(cmd.Simulations, seed)
			if err != nil {
				return err
			}
			res, err = engine.PriceWithInterestRateModel(ctx, opt, cmd.InitialRate, model)
			return err
		})
		if err != nil {
			return nil, err
		}
		return &MonteCarloQuote{OptionType: optType, Seed: seed, Result: *res}, nil
	})
}

// SimulateRates 生成利率路径
func (s *SimulationService) SimulateRates(ctx context.Context, cmd SimulateRatesCommand) (*RateSimulation, error) {
	name, err := domain.ParseRateModelName(cmd.Model)
	if err != nil {
		return nil, err
	}
	model, err := s.rt.models.Model(name)
	if err != nil {
		return nil, err
	}
	if err := s.rt.checkPaths(cmd.Paths); err != nil {
		return nil, err
	}
	if err := s.rt.checkSteps(cmd.Steps); err != nil {
		return nil, err
	}
	if err := s.rt.checkGrid(cmd.Paths, cmd.Steps); err != nil {
		return nil, err
	}
	seed := s.rt.resolveSeed(cmd.Seed)

	var ens *domain.PathEnsemble
	err = s.rt.run(ctx, "simulate_rates", string(name), cmd.Paths, func(ctx context.Context) error {
		engine, err := domain.NewMonteCarloEngine(cmd.Paths, seed)
		if err != nil {
			return err
		}
		ens, err = engine.SimulateRates(ctx, cmd.InitialRate, cmd.Horizon, cmd.Steps, model)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RateSimulation{
		Model:      name,
		Seed:       seed,
		TimePoints: ens.TimePoints(),
		Paths:      ens.Rows(),
	}, nil
}

const (
	compareBlackScholes = "black-scholes"
	compareMonteCarlo   = "monte-carlo"
)

// Compare 用多个模型为同一期权定价
// 各模型使用各自的引擎并发计算，结果按请求顺序返回。
func (s *SimulationService) Compare(ctx context.Context, cmd CompareCommand) (*Comparison, error) {
	optType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	models, err := parseCompareModels(cmd.Models)
	if err != nil {
		return nil, err
	}
	opt := domain.OptionSpec{
		Spot:       cmd.Spot,
		Strike:     cmd.Strike,
		Maturity:   cmd.Maturity,
		Volatility: cmd.Volatility,
		Type:       optType,
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if len(models) > 1 || models[0] != compareBlackScholes {
		// 只有解析模型时不受日步长约束
		steps, err := domain.DailySteps(opt.Maturity)
		if err != nil {
			return nil, err
		}
		if err := s.rt.checkSteps(steps); err != nil {
			return nil, err
		}
		if err := s.rt.checkGrid(s.comparePaths(models), steps); err != nil {
			return nil, err
		}
	}
	seed := s.rt.resolveSeed(cmd.Seed)

	entries := make([]ComparisonEntry, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range models {
		g.Go(func() error {
			entry, err := s.compareOne(gctx, m, opt, cmd.RiskFreeRate, seed)
			if err != nil {
				return fmt.Errorf("%s: %w", m, err)
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Comparison{OptionType: optType, Entries: entries}, nil
}

func (s *SimulationService) compareOne(ctx context.Context, model string, opt domain.OptionSpec, rate float64, seed uint64) (ComparisonEntry, error) {
	switch model {
	case compareBlackScholes:
		bs, err := domain.CalculateBlackScholes(opt.Type, domain.BlackScholesInput{
			S: opt.Spot, K: opt.Strike, T: opt.Maturity, R: rate, V: opt.Volatility,
		})
		if err != nil {
			return ComparisonEntry{}, err
		}
		return ComparisonEntry{Name: "Black-Scholes", Price: bs.Price}, nil

	case compareMonteCarlo:
		paths := s.rt.limits.ComparePaths
		var res *domain.PricingResult
		err := s.rt.run(ctx, "compare", string(domain.RegimeFlat), paths, func(ctx context.Context) error {
			engine, err := domain.NewMonteCarloEngine(paths, seed)
			if err != nil {
				return err
			}
			res, err = engine.PriceEuropeanOption(ctx, opt, rate)
			return err
		})
		if err != nil {
			return ComparisonEntry{}, err
		}
		return ComparisonEntry{Name: "Monte Carlo", Price: res.Price}, nil
	}

	name := domain.RateModelName(model)
	rm, err := s.rt.models.Model(name)
	if err != nil {
		return ComparisonEntry{}, err
	}
	paths := s.rt.limits.CompareRatePaths
	var res *domain.PricingResult
	err = s.rt.run(ctx, "compare", model, paths, func(ctx context.Context) error {
		engine, err := domain.NewMonteCarloEngine(paths, seed)
		if err != nil {
			return err
		}
		res, err = engine.PriceWithInterestRateModel(ctx, opt, rate, rm)
		return err
	})
	if err != nil {
		return ComparisonEntry{}, err
	}
	return ComparisonEntry{Name: comparisonName(name), Price: res.Price}, nil
}

// admit 校验期权参数与请求规模
func (s *SimulationService) admit(opt domain.OptionSpec, paths int) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	if err := s.rt.checkPaths(paths); err != nil {
		return err
	}
	steps, err := domain.DailySteps(opt.Maturity)
	if err != nil {
		return err
	}
	if err := s.rt.checkSteps(steps); err != nil {
		return err
	}
	return s.rt.checkGrid(paths, steps)
}

// comparePaths 比较请求中单个引擎使用的最大路径数
func (s *SimulationService) comparePaths(models []string) int {
	paths := 0
	for _, m := range models {
		switch m {
		case compareBlackScholes:
		case compareMonteCarlo:
			paths = max(paths, s.rt.limits.ComparePaths)
		default:
			paths = max(paths, s.rt.limits.CompareRatePaths)
		}
	}
	return paths
}

func parseCompareModels(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return []string{compareBlackScholes, compareMonteCarlo}, nil
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		m := strings.ToLower(strings.TrimSpace(r))
		switch m {
		case compareBlackScholes, compareMonteCarlo:
		default:
			name, err := domain.ParseRateModelName(m)
			if err != nil {
				return nil, err
			}
			m = string(name)
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}
