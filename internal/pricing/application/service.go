// Package application 定价用例：命令校验、准入控制、结果缓存与指标
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// SimulationRecorder 定价指标记录器
type SimulationRecorder interface {
	RecordSimulation(operation, model string, paths int, duration time.Duration, err error)
	RecordCacheLookup(hit bool)
}

// Runner 执行 CPU 密集型任务，可用于限制并发
type Runner interface {
	Run(ctx context.Context, task func(context.Context) error) error
}

// DefaultMaxCells 单个路径网格 paths × (steps+1) 的默认上限，约 400MB float64
const DefaultMaxCells = 50_000_000

// Limits 单次请求的规模上限与模型比较的路径数
type Limits struct {
	MaxPaths         int
	MaxSteps         int
	MaxCells         int // 0 时取 DefaultMaxCells
	ComparePaths     int
	CompareRatePaths int
}

// DefaultLimits 默认上限
func DefaultLimits() Limits {
	return Limits{MaxPaths: 200000, MaxSteps: 10000, MaxCells: DefaultMaxCells, ComparePaths: 10000, CompareRatePaths: 5000}
}

// Options PricingService 依赖
type Options struct {
	Models      ModelDefaults
	Limits      Limits
	DefaultSeed uint64
	Runner      Runner             // nil 时在调用方 goroutine 内执行
	Cache       cache.Cache        // nil 时不缓存
	CachePrefix string
	Recorder    SimulationRecorder // nil 时不记录
}

// PricingService 定价门面服务。
type PricingService struct {
	Simulation *SimulationService
	Analytic   *AnalyticService
}

// NewPricingService 构造函数。
func NewPricingService(opts Options) *PricingService {
	rt := newRuntime(opts)
	return &PricingService{
		Simulation: &SimulationService{rt: rt},
		Analytic:   &AnalyticService{rt: rt},
	}
}

// --- Simulation Facade ---

func (s *PricingService) PriceMonteCarlo(ctx context.Context, cmd PriceMonteCarloCommand) (*MonteCarloQuote, error) {
	return s.Simulation.PriceMonteCarlo(ctx, cmd)
}

func (s *PricingService) PriceWithRateModel(ctx context.Context, cmd PriceWithRateModelCommand) (*MonteCarloQuote, error) {
	return s.Simulation.PriceWithRateModel(ctx, cmd)
}

func (s *PricingService) SimulateRates(ctx context.Context, cmd SimulateRatesCommand) (*RateSimulation, error) {
	return s.Simulation.SimulateRates(ctx, cmd)
}

func (s *PricingService) Compare(ctx context.Context, cmd CompareCommand) (*Comparison, error) {
	return s.Simulation.Compare(ctx, cmd)
}

// --- Analytic Facade ---

func (s *PricingService) PriceBlackScholes(ctx context.Context, cmd BlackScholesCommand) (*AnalyticQuote, error) {
	return s.Analytic.PriceBlackScholes(ctx, cmd)
}

func (s *PricingService) PriceZeroCouponBond(ctx context.Context, cmd ZeroCouponBondCommand) (*BondQuote, error) {
	return s.Analytic.PriceZeroCouponBond(ctx, cmd)
}

type runtime struct {
	models      ModelDefaults
	limits      Limits
	seed        uint64
	runner      Runner
	cache       cache.Cache
	cachePrefix string
	recorder    SimulationRecorder
}

func newRuntime(opts Options) *runtime {
	rt := &runtime{
		models:      opts.Models,
		limits:      opts.Limits,
		seed:        opts.DefaultSeed,
		runner:      opts.Runner,
		cache:       opts.Cache,
		cachePrefix: opts.CachePrefix,
		recorder:    opts.Recorder,
	}
	if rt.runner == nil {
		rt.runner = inlineRunner{}
	}
	if rt.recorder == nil {
		rt.recorder = noopRecorder{}
	}
	if rt.models == (ModelDefaults{}) {
		rt.models = DefaultModels()
	}
	if rt.limits == (Limits{}) {
		rt.limits = DefaultLimits()
	}
	if rt.limits.MaxCells <= 0 {
		rt.limits.MaxCells = DefaultMaxCells
	}
	return rt
}

func (rt *runtime) resolveSeed(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	return rt.seed
}

func (rt *runtime) checkPaths(paths int) error {
	if paths < 1 {
		return fmt.Errorf("%w: path count must be at least 1, got %d", domain.ErrInvalidParameter, paths)
	}
	if paths > rt.limits.MaxPaths {
		return fmt.Errorf("%w: path count %d exceeds limit %d", domain.ErrInvalidParameter, paths, rt.limits.MaxPaths)
	}
	return nil
}

func (rt *runtime) checkSteps(steps int) error {
	if steps < 1 {
		return fmt.Errorf("%w: step count must be at least 1, got %d", domain.ErrInvalidParameter, steps)
	}
	if steps > rt.limits.MaxSteps {
		return fmt.Errorf("%w: step count %d exceeds limit %d", domain.ErrInvalidParameter, steps, rt.limits.MaxSteps)
	}
	return nil
}

// checkGrid 路径数与步数各自合法时，网格总量仍可能超出内存预算
func (rt *runtime) checkGrid(paths, steps int) error {
	cells := int64(paths) * int64(steps+1)
	if cells > int64(rt.limits.MaxCells) {
		return fmt.Errorf("%w: %d paths x %d steps exceeds grid limit of %d cells",
			domain.ErrInvalidParameter, paths, steps, rt.limits.MaxCells)
	}
	return nil
}

// run 通过 Runner 执行任务并记录耗时与结果
func (rt *runtime) run(ctx context.Context, operation, model string, paths int, task func(context.Context) error) error {
	start := time.Now()
	done := logger.LogDuration(ctx, "Simulation finished", "operation", operation, "model", model, "paths", paths)

	err := rt.runner.Run(ctx, task)
	rt.recorder.RecordSimulation(operation, model, paths, time.Since(start), err)
	if err != nil {
		logger.Warn(ctx, "Simulation failed", "operation", operation, "model", model, "error", err)
		return err
	}
	done()
	return nil
}

// cached 按参数查缓存，未命中时计算并回写；缓存故障不影响计算
func cached[T any](ctx context.Context, rt *runtime, kind string, params any, compute func() (T, error)) (T, error) {
	if rt.cache == nil {
		return compute()
	}

	key, err := cache.Key(rt.cachePrefix, kind, params)
	if err != nil {
		return compute()
	}

	var out T
	found, err := cache.GetJSON(ctx, rt.cache, key, &out)
	if err != nil {
		logger.Warn(ctx, "Cache lookup failed", "key", key, "error", err)
	}
	rt.recorder.RecordCacheLookup(found)
	if found {
		return out, nil
	}

	out, err = compute()
	if err != nil {
		return out, err
	}
	if err := cache.SetJSON(ctx, rt.cache, key, out); err != nil {
		logger.Warn(ctx, "Cache store failed", "key", key, "error", err)
	}
	return out, nil
}

type inlineRunner struct{}

func (inlineRunner) Run(ctx context.Context, task func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return task(ctx)
}

type noopRecorder struct{}

func (noopRecorder) RecordSimulation(string, string, int, time.Duration, error) {}
func (noopRecorder) RecordCacheLookup(bool) {}
