package application

import (
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PriceMonteCarloCommand 常数利率蒙特卡洛定价命令
type PriceMonteCarloCommand struct {
	Spot         float64
	Strike       float64
	Maturity     float64
	RiskFreeRate float64
	Volatility   float64
	OptionType   string
	Simulations  int
	Seed         *uint64 // nil 时使用配置的默认种子
}

// PriceWithRateModelCommand 随机利率蒙特卡洛定价命令
type PriceWithRateModelCommand struct {
	Spot            float64
	Strike          float64
	Maturity        float64
	InitialRate     float64
	StockVolatility float64
	OptionType      string
	RateModel       string
	Simulations     int
	Seed            *uint64
}

// SimulateRatesCommand 利率路径模拟命令
type SimulateRatesCommand struct {
	InitialRate float64
	Horizon     float64
	Steps       int
	Paths       int
	Model       string
	Seed        *uint64
}

// BlackScholesCommand 解析定价命令
type BlackScholesCommand struct {
	Spot         float64
	Strike       float64
	Maturity     float64
	RiskFreeRate float64
	Volatility   float64
	OptionType   string
}

// CompareCommand 多模型比较命令
// 随机利率模型以 RiskFreeRate 作为初始利率。
type CompareCommand struct {
	Spot         float64
	Strike       float64
	Maturity     float64
	RiskFreeRate float64
	Volatility   float64
	OptionType   string
	Models       []string // 为空时比较 black-scholes 与 monte-carlo
	Seed         *uint64
}

// ZeroCouponBondCommand Vasicek 零息债券定价命令
type ZeroCouponBondCommand struct {
	InitialRate float64
	Maturity    float64
	Face        float64 // 为 0 时按 100 计
}

// MonteCarloQuote 蒙特卡洛定价结果
type MonteCarloQuote struct {
	OptionType domain.OptionType
	Seed       uint64
	Result     domain.PricingResult
}

// AnalyticQuote 解析定价结果
type AnalyticQuote struct {
	OptionType domain.OptionType
	Price      float64
	Greeks     domain.Greeks
}

// RateSimulation 利率路径模拟结果
type RateSimulation struct {
	Model      domain.RateModelName
	Seed       uint64
	TimePoints []float64
	Paths      [][]float64
}

// ComparisonEntry 单个模型的比较结果
type ComparisonEntry struct {
	Name  string
	Price float64
}

// Comparison 多模型比较结果，顺序与请求一致
type Comparison struct {
	OptionType domain.OptionType
	Entries    []ComparisonEntry
}

// BondQuote 零息债券价格
type BondQuote struct {
	Price float64
	Model domain.Vasicek
}
