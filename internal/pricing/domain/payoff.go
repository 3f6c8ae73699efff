package domain

import (
	"fmt"
	"math"
)

// Payoffs 计算每条路径的到期收益
// 看涨 max(S_T - K, 0)，看跌 max(K - S_T, 0)。
func Payoffs(terminal []float64, strike float64, optionType OptionType) []float64 {
	out := make([]float64, len(terminal))
	for i, s := range terminal {
		if optionType == OptionTypeCall {
			out[i] = math.Max(s-strike, 0)
		} else {
			out[i] = math.Max(strike-s, 0)
		}
	}
	return out
}

// FlatDiscountFactor 常数利率折现因子 exp(-rT)
func FlatDiscountFactor(rate, maturity float64) float64 {
	return math.Exp(-rate * maturity)
}

// PathDiscountFactors 随机利率下逐路径折现因子
// exp(-Σ_{j<n} r_j·dt)：左端点黎曼和近似 ∫r(t)dt，不含最后一个利率观测。
func PathDiscountFactors(rates *PathEnsemble) []float64 {
	paths, steps := rates.Paths(), rates.Steps()
	dt := rates.Dt()
	out := make([]float64, paths)
	for i := 0; i < paths; i++ {
		integral := 0.0
		for j := 0; j < steps; j++ {
			integral += rates.At(i, j) * dt
		}
		out[i] = math.Exp(-integral)
	}
	return out
}

// DiscountPerPath 逐路径折现收益 payoff_i · df_i
func DiscountPerPath(payoffs, factors []float64) ([]float64, error) {
	if len(payoffs) != len(factors) {
		return nil, fmt.Errorf("%w: %d payoffs vs %d discount factors", ErrShapeMismatch, len(payoffs), len(factors))
	}
	out := make([]float64, len(payoffs))
	for i := range payoffs {
		out[i] = payoffs[i] * factors[i]
	}
	return out, nil
}
