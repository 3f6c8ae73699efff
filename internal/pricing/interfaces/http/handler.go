package http

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/pkg/concurrency"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/response"
)

// 请求缺省值
const (
	defaultOptionType  = "call"
	defaultRateModel   = "vasicek"
	defaultSimulations = 10000
	defaultRateSteps   = 100
	defaultRatePaths   = 5
)

// HTTP 处理器
// 负责把 JSON 请求转换为定价命令，并按固定精度输出结果
type PricingHandler struct {
	svc *application.PricingService
}

// 创建 HTTP 处理器实例
func NewPricingHandler(svc *application.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// 注册路由
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/price/black-scholes", h.PriceBlackScholes)
		api.POST("/price/monte-carlo", h.PriceMonteCarlo)
		api.POST("/price/interest-rate-models", h.PriceWithRateModel)
		api.POST("/price/zero-coupon-bond", h.PriceZeroCouponBond)
		api.POST("/simulate/interest-rates", h.SimulateRates)
		api.POST("/compare", h.Compare)
	}
}

// Health 存活检查
func (h *PricingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Options Pricing Platform API is running",
	})
}

// PriceBlackScholes 解析解定价
func (h *PricingHandler) PriceBlackScholes(c *gin.Context) {
	in, ok := bind(c)
	if !ok {
		return
	}
	opt, err := readOption(in, "risk_free_rate", "volatility")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.svc.PriceBlackScholes(c.Request.Context(), application.BlackScholesCommand{
		Spot:         opt.spot,
		Strike:       opt.strike,
		Maturity:     opt.maturity,
		RiskFreeRate: opt.rate,
		Volatility:   opt.vol,
		OptionType:   opt.optionType,
	})
	if err != nil {
		h.fail(c, "Failed to calculate Black-Scholes price", err)
		return
	}

	response.Success(c, gin.H{
		"model":       "Black-Scholes",
		"option_type": quote.OptionType.Label(),
		"price":       round(quote.Price, 4),
		"greeks": gin.H{
			"delta": round(quote.Greeks.Delta, 6),
			"gamma": round(quote.Greeks.Gamma, 6),
			"theta": round(quote.Greeks.Theta, 6),
			"vega":  round(quote.Greeks.Vega, 6),
			"rho":   round(quote.Greeks.Rho, 6),
		},
		"inputs": in,
	})
}

// PriceMonteCarlo 常数利率蒙特卡洛定价
func (h *PricingHandler) PriceMonteCarlo(c *gin.Context) {
	in, ok := bind(c)
	if !ok {
		return
	}
	opt, err := readOption(in, "risk_free_rate", "volatility")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	sims, err := in.intOr("n_simulations", defaultSimulations)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	seed, err := in.seed()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.svc.PriceMonteCarlo(c.Request.Context(), application.PriceMonteCarloCommand{
		Spot:         opt.spot,
		Strike:       opt.strike,
		Maturity:     opt.maturity,
		RiskFreeRate: opt.rate,
		Volatility:   opt.vol,
		OptionType:   opt.optionType,
		Simulations:  sims,
		Seed:         seed,
	})
	if err != nil {
		h.fail(c, "Failed to run Monte Carlo pricing", err)
		return
	}

	res := quote.Result
	response.Success(c, gin.H{
		"model":                  "Monte Carlo",
		"option_type":            quote.OptionType.Label(),
		"price":                  round(res.Price, 4),
		"std_error":              round(res.StdError, 6),
		"confidence_interval_95": []float64{round(res.CILow, 4), round(res.CIHigh, 4)},
		"n_simulations":          res.Paths,
		"seed":                   quote.Seed,
		"inputs":                 in,
	})
}

// PriceWithRateModel 随机利率蒙特卡洛定价
func (h *PricingHandler) PriceWithRateModel(c *gin.Context) {
	in, ok := bind(c)
	if !ok {
		return
	}
	opt, err := readOption(in, "initial_rate", "stock_volatility")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	rateModel, err := in.stringOr("rate_model", defaultRateModel)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	sims, err := in.intOr("n_simulations", defaultSimulations)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	seed, err := in.seed()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.svc.PriceWithRateModel(c.Request.Context(), application.PriceWithRateModelCommand{
		Spot:            opt.spot,
		Strike:          opt.strike,
		Maturity:        opt.maturity,
		InitialRate:     opt.rate,
		StockVolatility: opt.vol,
		OptionType:      opt.optionType,
		RateModel:       rateModel,
		Simulations:     sims,
		Seed:            seed,
	})
	if err != nil {
		h.fail(c, "Failed to price with interest rate model", err)
		return
	}

	res := quote.Result
	response.Success(c, gin.H{
		"model":                  application.ModelLabel(res.RateModel),
		"option_type":            quote.OptionType.Label(),
		"price":                  round(res.Price, 4),
		"std_error":              round(res.StdError, 6),
		"confidence_interval_95": []float64{round(res.CILow, 4), round(res.CIHigh, 4)},
		"rate_model":             res.RateModel,
		"n_simulations":          res.Paths,
		"seed":                   quote.Seed,
		"inputs":                 in,
	})
}

// PriceZeroCouponBond Vasicek 零息债券定价
func (h *PricingHandler) PriceZeroCouponBond(c *gin.Context) {
	in, ok := bind(c)
	if !ok {
		return
	}
	r0, err := in.float("initial_rate")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	maturity, err := in.float("maturity")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	face, err := in.floatOr("face_value", application.DefaultFaceValue)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.svc.PriceZeroCouponBond(c.Request.Context(), application.ZeroCouponBondCommand{
		InitialRate: r0,
		Maturity:    maturity,
		Face:        face,
	})
	if err != nil {
		h.fail(c, "Failed to price zero coupon bond", err)
		return
	}

	response.Success(c, gin.H{
		"model": "Vasicek",
		"price": round(quote.Price, 6),
		"parameters": gin.H{
			"speed":    quote.Model.Speed,
			"long_run": quote.Model.LongRun,
			"sigma":    quote.Model.Sigma,
		},
		"inputs": in,
	})
}

// SimulateRates 生成利率路径
func (h *PricingHandler) SimulateRates(c *gin.Context) {
	in, ok := bind(c)
	if !ok {
		return
	}
	r0, err := in.float("initial_rate")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	horizon, err := in.float("time_horizon")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	steps, err := in.intOr("n_steps", defaultRateSteps)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	paths, err := in.intOr("n_paths", defaultRatePaths)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	model, err := in.stringOr("model", defaultRateModel)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	seed, err := in.seed()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	sim, err := h.svc.SimulateRates(c.Request.Context(), application.SimulateRatesCommand{
		InitialRate: r0,
		Horizon:     horizon,
		Steps:       steps,
		Paths:       paths,
		Model:       model,
		Seed:        seed,
	})
	if err != nil {
		h.fail(c, "Failed to simulate interest rates", err)
		return
	}

	response.Success(c, gin.H{
		"model":       sim.Model,
		"time_points": sim.TimePoints,
		"paths":       sim.Paths,
		"seed":        sim.Seed,
		"inputs":      in,
	})
}

// Compare 多模型比较
// comparison 为名称到价格的映射，models 保留请求顺序
func (h *PricingHandler) Compare(c *gin.Context) {
	in, ok := bind(c)
	if !ok {
		return
	}
	opt, err := readOption(in, "risk_free_rate", "volatility")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	models, err := in.stringsOr("models", nil)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	seed, err := in.seed()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	cmp, err := h.svc.Compare(c.Request.Context(), application.CompareCommand{
		Spot:         opt.spot,
		Strike:       opt.strike,
		Maturity:     opt.maturity,
		RiskFreeRate: opt.rate,
		Volatility:   opt.vol,
		OptionType:   opt.optionType,
		Models:       models,
		Seed:         seed,
	})
	if err != nil {
		h.fail(c, "Failed to compare models", err)
		return
	}

	prices := make(gin.H, len(cmp.Entries))
	names := make([]string, 0, len(cmp.Entries))
	for _, e := range cmp.Entries {
		prices[e.Name] = round(e.Price, 4)
		names = append(names, e.Name)
	}
	response.Success(c, gin.H{
		"option_type": cmp.OptionType.Label(),
		"comparison":  prices,
		"models":      names,
		"inputs":      in,
	})
}

// fail 记录错误并按类别映射状态码
func (h *PricingHandler) fail(c *gin.Context, msg string, err error) {
	logger.Error(c.Request.Context(), msg, "error", err)
	response.ErrorWithStatus(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, concurrency.ErrPoolFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadRequest
	}
}

// bind 解析请求体为宽松字段表
func bind(c *gin.Context) (fields, bool) {
	var in fields
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if in == nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "request body must be a JSON object")
		return nil, false
	}
	return in, true
}

type optionFields struct {
	spot, strike, maturity, rate, vol float64
	optionType                        string
}

// readOption 读取期权公共字段，利率与波动率字段名因端点而异
func readOption(in fields, rateKey, volKey string) (optionFields, error) {
	var (
		out optionFields
		err error
	)
	if out.spot, err = in.float("stock_price"); err != nil {
		return out, err
	}
	if out.strike, err = in.float("strike_price"); err != nil {
		return out, err
	}
	if out.maturity, err = in.float("time_to_maturity"); err != nil {
		return out, err
	}
	if out.rate, err = in.float(rateKey); err != nil {
		return out, err
	}
	if out.vol, err = in.float(volKey); err != nil {
		return out, err
	}
	out.optionType, err = in.stringOr("option_type", defaultOptionType)
	return out, err
}

// round 按十进制精度四舍五入，非有限值原样返回
func round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}
