package domain

import (
	"context"
	"fmt"
	"math"
)

// TradingDaysPerYear 按日步长约定的年交易日数
const TradingDaysPerYear = 252

// DailySteps 按日步长约定计算步数：n = ⌊T · 252⌋
// 期限短于一个交易日时无有效步数。
func DailySteps(maturity float64) (int, error) {
	if maturity <= 0 || math.IsNaN(maturity) || math.IsInf(maturity, 0) {
		return 0, fmt.Errorf("%w: maturity must be positive, got %v", ErrInvalidParameter, maturity)
	}
	if maturity*TradingDaysPerYear > math.MaxInt32 {
		return 0, fmt.Errorf("%w: maturity %v is too long for daily steps", ErrInvalidParameter, maturity)
	}
	steps := int(maturity * TradingDaysPerYear)
	if steps < 1 {
		return 0, fmt.Errorf("%w: maturity %v is shorter than one trading day (1/%d year)", ErrInvalidParameter, maturity, TradingDaysPerYear)
	}
	return steps, nil
}

// EquitySimulator 对数正态股价路径生成器
// 股价与利率使用互不相关的正态抽样，不共享布朗运动驱动。
type EquitySimulator struct {
	gen *Generator
}

// NewEquitySimulator 创建股价路径生成器
func NewEquitySimulator(gen *Generator) *EquitySimulator {
	return &EquitySimulator{gen: gen}
}

// SimulateFlat 常数利率下的股价路径
func (s *EquitySimulator) SimulateFlat(ctx context.Context, spot, horizon, sigma, rate float64, steps, paths int) (*PathEnsemble, error) {
	return s.simulate(ctx, spot, horizon, sigma, steps, paths, func(int, int) float64 { return rate })
}

// SimulateWithRates 由利率路径逐步驱动的股价路径
// 利率路径的维度必须为 paths × (steps+1)。
func (s *EquitySimulator) SimulateWithRates(ctx context.Context, spot, horizon, sigma float64, rates *PathEnsemble, steps, paths int) (*PathEnsemble, error) {
	if rates == nil {
		return nil, fmt.Errorf("%w: rate ensemble is required", ErrInvalidParameter)
	}
	if rates.Paths() != paths || rates.Steps() != steps {
		return nil, fmt.Errorf("%w: rate ensemble is %dx%d, equity requires %dx%d",
			ErrShapeMismatch, rates.Paths(), rates.Steps()+1, paths, steps+1)
	}
	return s.simulate(ctx, spot, horizon, sigma, steps, paths, rates.At)
}

// simulate S_{t+1} = S_t · exp((r_t - σ²/2)dt + σ√dt·Z)
func (s *EquitySimulator) simulate(ctx context.Context, spot, horizon, sigma float64, steps, paths int, rateAt func(path, step int) float64) (*PathEnsemble, error) {
	if spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return nil, fmt.Errorf("%w: spot must be positive and finite, got %v", ErrInvalidParameter, spot)
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("%w: volatility must be non-negative, got %v", ErrInvalidParameter, sigma)
	}
	ens, err := NewPathEnsemble(paths, steps, horizon, spot)
	if err != nil {
		return nil, err
	}
	dt := ens.Dt()
	halfVar := 0.5 * sigma * sigma
	vol := sigma * math.Sqrt(dt)

	z := make([]float64, paths)
	for j := 0; j < steps; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.gen.Fill(z)
		for i := 0; i < paths; i++ {
			ens.set(i, j+1, ens.At(i, j)*math.Exp((rateAt(i, j)-halfVar)*dt+vol*z[i]))
		}
	}
	return ens, nil
}
