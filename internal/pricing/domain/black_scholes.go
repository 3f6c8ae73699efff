package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// BlackScholesInput Black-Scholes 模型输入
type BlackScholesInput struct {
	S float64 // 标的资产价格
	K float64 // 执行价格
	T float64 // 到期时间 (年)
	R float64 // 无风险利率
	V float64 // 波动率
}

// Greeks 希腊字母
// Vega、Rho 按 1% 变动计，Theta 按每日计。
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// BlackScholesResult Black-Scholes 模型输出
type BlackScholesResult struct {
	Price  float64
	Greeks Greeks
}

// CalculateBlackScholes 计算 Black-Scholes 价格和 Greeks
// σ√T 为零时 d1 无定义，返回 ErrNumericDegenerate。
func CalculateBlackScholes(optionType OptionType, input BlackScholesInput) (*BlackScholesResult, error) {
	if input.S <= 0 || input.K <= 0 {
		return nil, fmt.Errorf("%w: stock and strike price must be positive", ErrInvalidParameter)
	}
	if input.V <= 0 || input.T <= 0 {
		return nil, fmt.Errorf("%w: volatility and maturity must be positive for the analytic formula", ErrNumericDegenerate)
	}
	if optionType != OptionTypeCall && optionType != OptionTypePut {
		return nil, fmt.Errorf("%w: option type must be CALL or PUT, got %q", ErrInvalidParameter, optionType)
	}

	sqrtT := math.Sqrt(input.T)
	d1 := (math.Log(input.S/input.K) + (input.R+0.5*input.V*input.V)*input.T) / (input.V * sqrtT)
	d2 := d1 - input.V*sqrtT
	disc := math.Exp(-input.R * input.T)

	gamma := normPdf(d1) / (input.S * input.V * sqrtT)
	vega := input.S * normPdf(d1) * sqrtT / 100
	decay := -input.S * normPdf(d1) * input.V / (2 * sqrtT)

	var price, delta, theta, rho float64
	if optionType == OptionTypeCall {
		price = input.S*normCdf(d1) - input.K*disc*normCdf(d2)
		delta = normCdf(d1)
		theta = (decay - input.R*input.K*disc*normCdf(d2)) / 365
		rho = input.K * input.T * disc * normCdf(d2) / 100
	} else {
		price = input.K*disc*normCdf(-d2) - input.S*normCdf(-d1)
		delta = -normCdf(-d1)
		theta = (decay + input.R*input.K*disc*normCdf(-d2)) / 365
		rho = -input.K * input.T * disc * normCdf(-d2) / 100
	}

	if !isFinite(price) {
		return nil, fmt.Errorf("%w: analytic price is not finite", ErrNumericDegenerate)
	}
	return &BlackScholesResult{
		Price: price,
		Greeks: Greeks{
			Delta: delta,
			Gamma: gamma,
			Theta: theta,
			Vega:  vega,
			Rho:   rho,
		},
	}, nil
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPdf 标准正态分布概率密度函数
func normPdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
