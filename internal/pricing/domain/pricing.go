// Package domain 期权定价核心：短期利率模型、股价路径模拟、收益折现与蒙特卡洛估计
package domain

import (
	"fmt"
	"math"
	"strings"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ParseOptionType 解析期权类型（大小写不敏感）
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(strings.ToUpper(strings.TrimSpace(s))) {
	case OptionTypeCall:
		return OptionTypeCall, nil
	case OptionTypePut:
		return OptionTypePut, nil
	default:
		return "", fmt.Errorf("%w: option type must be call or put, got %q", ErrInvalidParameter, s)
	}
}

// Label 小写展示名
func (t OptionType) Label() string {
	return strings.ToLower(string(t))
}

// OptionSpec 欧式期权定价参数
type OptionSpec struct {
	Spot       float64    // 标的当前价格 S0
	Strike     float64    // 行权价 K
	Maturity   float64    // 到期时间（年）T
	Volatility float64    // 标的波动率 σ
	Type       OptionType // 看涨 / 看跌
}

// Validate 校验定价参数
func (o OptionSpec) Validate() error {
	switch {
	case !isFinite(o.Spot) || o.Spot <= 0:
		return fmt.Errorf("%w: stock price must be positive, got %v", ErrInvalidParameter, o.Spot)
	case !isFinite(o.Strike) || o.Strike < 0:
		return fmt.Errorf("%w: strike price must be non-negative, got %v", ErrInvalidParameter, o.Strike)
	case !isFinite(o.Maturity) || o.Maturity <= 0:
		return fmt.Errorf("%w: time to maturity must be positive, got %v", ErrInvalidParameter, o.Maturity)
	case !isFinite(o.Volatility) || o.Volatility < 0:
		return fmt.Errorf("%w: volatility must be non-negative, got %v", ErrInvalidParameter, o.Volatility)
	}
	if o.Type != OptionTypeCall && o.Type != OptionTypePut {
		return fmt.Errorf("%w: option type must be CALL or PUT, got %q", ErrInvalidParameter, o.Type)
	}
	return nil
}

// RateRegime 利率环境
type RateRegime string

const (
	RegimeFlat       RateRegime = "flat"
	RegimeStochastic RateRegime = "stochastic"
)

// PricingResult 定价结果
// 每次请求创建一次，不可变、不持久化。
type PricingResult struct {
	Price     float64
	StdError  float64
	CILow     float64 // 95% 置信区间下界
	CIHigh    float64 // 95% 置信区间上界
	Regime    RateRegime
	RateModel RateModelName // 仅随机利率环境下非空
	Paths     int
	Steps     int
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
