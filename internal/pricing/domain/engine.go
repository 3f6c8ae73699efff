package domain

import (
	"context"
	"fmt"
	"math"
)

// MonteCarloEngine 蒙特卡洛定价引擎
// 持有路径数与独占的随机数发生器；不可在多个 goroutine 间共享。
type MonteCarloEngine struct {
	simulations int
	gen         *Generator
}

// NewMonteCarloEngine 创建引擎，seed 决定全部抽样序列
func NewMonteCarloEngine(simulations int, seed uint64) (*MonteCarloEngine, error) {
	if simulations < 1 {
		return nil, fmt.Errorf("%w: simulation count must be at least 1, got %d", ErrInvalidParameter, simulations)
	}
	return &MonteCarloEngine{simulations: simulations, gen: NewGenerator(seed)}, nil
}

// Simulations 路径数
func (e *MonteCarloEngine) Simulations() int { return e.simulations }

// PriceEuropeanOption 常数利率下的欧式期权定价
// 折现因子 exp(-rT) 作用于平均收益。
func (e *MonteCarloEngine) PriceEuropeanOption(ctx context.Context, opt OptionSpec, rate float64) (*PricingResult, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if !isFinite(rate) {
		return nil, fmt.Errorf("%w: risk-free rate must be finite", ErrInvalidParameter)
	}
	steps, err := DailySteps(opt.Maturity)
	if err != nil {
		return nil, err
	}

	equity, err := NewEquitySimulator(e.gen).SimulateFlat(ctx, opt.Spot, opt.Maturity, opt.Volatility, rate, steps, e.simulations)
	if err != nil {
		return nil, err
	}

	raw, err := EstimateSample(Payoffs(equity.Terminal(), opt.Strike, opt.Type))
	if err != nil {
		return nil, err
	}
	est := raw.Scale(FlatDiscountFactor(rate, opt.Maturity))
	return e.result(est, RegimeFlat, "", steps)
}

// PriceWithInterestRateModel 随机利率下的欧式期权定价
// 先生成利率路径，再逐步驱动股价路径，每条路径用自身利率轨迹折现。
func (e *MonteCarloEngine) PriceWithInterestRateModel(ctx context.Context, opt OptionSpec, r0 float64, model RateModel) (*PricingResult, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("%w: rate model is required", ErrInvalidParameter)
	}
	if !isFinite(r0) {
		return nil, fmt.Errorf("%w: initial rate must be finite", ErrInvalidParameter)
	}
	steps, err := DailySteps(opt.Maturity)
	if err != nil {
		return nil, err
	}

	rates, err := model.Simulate(ctx, e.gen, r0, opt.Maturity, steps, e.simulations)
	if err != nil {
		return nil, err
	}

	equity, err := NewEquitySimulator(e.gen).SimulateWithRates(ctx, opt.Spot, opt.Maturity, opt.Volatility, rates, steps, e.simulations)
	if err != nil {
		return nil, err
	}

	discounted, err := DiscountPerPath(Payoffs(equity.Terminal(), opt.Strike, opt.Type), PathDiscountFactors(rates))
	if err != nil {
		return nil, err
	}
	est, err := EstimateSample(discounted)
	if err != nil {
		return nil, err
	}
	return e.result(est, RegimeStochastic, model.Name(), steps)
}

// SimulateRates 生成利率路径集合（不做定价）
func (e *MonteCarloEngine) SimulateRates(ctx context.Context, r0, horizon float64, steps int, model RateModel) (*PathEnsemble, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: rate model is required", ErrInvalidParameter)
	}
	if !isFinite(r0) {
		return nil, fmt.Errorf("%w: initial rate must be finite", ErrInvalidParameter)
	}
	if !isFinite(horizon) || horizon <= 0 {
		return nil, fmt.Errorf("%w: time horizon must be positive, got %v", ErrInvalidParameter, horizon)
	}
	return model.Simulate(ctx, e.gen, r0, horizon, steps, e.simulations)
}

func (e *MonteCarloEngine) result(est Estimate, regime RateRegime, model RateModelName, steps int) (*PricingResult, error) {
	if math.IsNaN(est.Mean) || math.IsInf(est.Mean, 0) {
		return nil, fmt.Errorf("%w: price is not finite", ErrNumericDegenerate)
	}
	low, high := est.ConfidenceInterval()
	return &PricingResult{
		Price:     est.Mean,
		StdError:  est.StdError,
		CILow:     low,
		CIHigh:    high,
		Regime:    regime,
		RateModel: model,
		Paths:     e.simulations,
		Steps:     steps,
	}, nil
}
