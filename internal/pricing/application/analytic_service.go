package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// DefaultFaceValue 零息债券默认面值
const DefaultFaceValue = 100.0

// AnalyticService 闭式解定价
type AnalyticService struct {
	rt *runtime
}

// PriceBlackScholes Black-Scholes 价格与 Greeks
func (s *AnalyticService) PriceBlackScholes(ctx context.Context, cmd BlackScholesCommand) (*AnalyticQuote, error) {
	optType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	input := domain.BlackScholesInput{
		S: cmd.Spot,
		K: cmd.Strike,
		T: cmd.Maturity,
		R: cmd.RiskFreeRate,
		V: cmd.Volatility,
	}

	key := struct {
		Input domain.BlackScholesInput
		Type  domain.OptionType
	}{input, optType}
	return cached(ctx, s.rt, "black-scholes", key, func() (*AnalyticQuote, error) {
		start := time.Now()
		res, err := domain.CalculateBlackScholes(optType, input)
		s.rt.recorder.RecordSimulation("black_scholes", "analytic", 0, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		return &AnalyticQuote{OptionType: optType, Price: res.Price, Greeks: res.Greeks}, nil
	})
}

// PriceZeroCouponBond 按默认 Vasicek 参数计算零息债券价格
func (s *AnalyticService) PriceZeroCouponBond(_ context.Context, cmd ZeroCouponBondCommand) (*BondQuote, error) {
	face := cmd.Face
	if face == 0 {
		face = DefaultFaceValue
	}
	if face < 0 {
		return nil, fmt.Errorf("%w: face value must be positive, got %v", domain.ErrInvalidParameter, face)
	}

	start := time.Now()
	model := s.rt.models.Vasicek
	price, err := model.BondPrice(cmd.InitialRate, cmd.Maturity, face)
	s.rt.recorder.RecordSimulation("zero_coupon_bond", string(domain.RateModelVasicek), 0, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &BondQuote{Price: price, Model: model}, nil
}
