package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/config"
)

type simulationCall struct {
	operation, model string
	paths            int
	failed           bool
}

type fakeRecorder struct {
	mu     sync.Mutex
	calls  []simulationCall
	hits   int
	misses int
}

func (f *fakeRecorder) RecordSimulation(operation, model string, paths int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, simulationCall{operation, model, paths, err != nil})
}

func (f *fakeRecorder) RecordCacheLookup(hit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Close() error { return nil }

type rejectingRunner struct{ err error }

func (r rejectingRunner) Run(context.Context, func(context.Context) error) error { return r.err }

func seed(v uint64) *uint64 { return &v }

func newService(t *testing.T, opts Options) (*PricingService, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	if opts.Recorder == nil {
		opts.Recorder = rec
	}
	if opts.DefaultSeed == 0 {
		opts.DefaultSeed = domain.DefaultSeed
	}
	return NewPricingService(opts), rec
}

var atm = PriceMonteCarloCommand{
	Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2,
	OptionType: "call", Simulations: 2000,
}

func TestPriceMonteCarlo_MatchesEngine(t *testing.T) {
	svc, rec := newService(t, Options{})

	got, err := svc.PriceMonteCarlo(context.Background(), atm)
	require.NoError(t, err)

	engine, err := domain.NewMonteCarloEngine(2000, domain.DefaultSeed)
	require.NoError(t, err)
	want, err := engine.PriceEuropeanOption(context.Background(), domain.OptionSpec{
		Spot: 100, Strike: 100, Maturity: 1, Volatility: 0.2, Type: domain.OptionTypeCall,
	}, 0.05)
	require.NoError(t, err)

	assert.Equal(t, *want, got.Result)
	assert.Equal(t, domain.OptionTypeCall, got.OptionType)
	assert.Equal(t, domain.DefaultSeed, got.Seed)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, simulationCall{"monte_carlo", "flat", 2000, false}, rec.calls[0])
}

func TestPriceMonteCarlo_SeedSelectsStream(t *testing.T) {
	svc, _ := newService(t, Options{})
	ctx := context.Background()

	a, err := svc.PriceMonteCarlo(ctx, atm)
	require.NoError(t, err)

	cmd := atm
	cmd.Seed = seed(7)
	b, err := svc.PriceMonteCarlo(ctx, cmd)
	require.NoError(t, err)
	c, err := svc.PriceMonteCarlo(ctx, cmd)
	require.NoError(t, err)

	assert.NotEqual(t, a.Result.Price, b.Result.Price)
	assert.Equal(t, b.Result, c.Result)
	assert.Equal(t, uint64(7), b.Seed)
}

func TestPriceMonteCarlo_Admission(t *testing.T) {
	svc, rec := newService(t, Options{Limits: Limits{MaxPaths: 1000, MaxSteps: 300, MaxCells: 100000, ComparePaths: 10, CompareRatePaths: 10}})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*PriceMonteCarloCommand)
	}{
		{"too many paths", func(c *PriceMonteCarloCommand) { c.Simulations = 1001 }},
		{"no paths", func(c *PriceMonteCarloCommand) { c.Simulations = 0 }},
		{"too many steps", func(c *PriceMonteCarloCommand) { c.Maturity = 2 }},
		{"grid too large", func(c *PriceMonteCarloCommand) { c.Simulations = 1000 }},
		{"maturity beyond integer range", func(c *PriceMonteCarloCommand) { c.Maturity = 1e300 }},
		{"unknown option type", func(c *PriceMonteCarloCommand) { c.OptionType = "straddle" }},
		{"zero maturity", func(c *PriceMonteCarloCommand) { c.Maturity = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := atm
			cmd.Simulations = 100
			tt.mutate(&cmd)
			_, err := svc.PriceMonteCarlo(ctx, cmd)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
	assert.Empty(t, rec.calls)
}

func TestPriceWithRateModel(t *testing.T) {
	svc, rec := newService(t, Options{})

	for _, model := range []string{"vasicek", "Hull-White", " black-derman-toy "} {
		t.Run(model, func(t *testing.T) {
			got, err := svc.PriceWithRateModel(context.Background(), PriceWithRateModelCommand{
				Spot: 100, Strike: 105, Maturity: 1, InitialRate: 0.05, StockVolatility: 0.2,
				OptionType: "put", RateModel: model, Simulations: 500,
			})
			require.NoError(t, err)
			assert.Equal(t, domain.RegimeStochastic, got.Result.Regime)
			assert.Equal(t, domain.OptionTypePut, got.OptionType)
			assert.Greater(t, got.Result.Price, 0.0)
		})
	}
	assert.Len(t, rec.calls, 3)

	_, err := svc.PriceWithRateModel(context.Background(), PriceWithRateModelCommand{
		Spot: 100, Strike: 105, Maturity: 1, InitialRate: 0.05, StockVolatility: 0.2,
		OptionType: "call", RateModel: "cox-ingersoll-ross", Simulations: 10,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestSimulateRates(t *testing.T) {
	svc, _ := newService(t, Options{})

	got, err := svc.SimulateRates(context.Background(), SimulateRatesCommand{
		InitialRate: 0.03, Horizon: 2, Steps: 100, Paths: 5, Model: "hull-white",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RateModelHullWhite, got.Model)
	require.Len(t, got.TimePoints, 101)
	assert.Equal(t, 0.0, got.TimePoints[0])
	assert.Equal(t, 2.0, got.TimePoints[100])
	require.Len(t, got.Paths, 5)
	for _, p := range got.Paths {
		require.Len(t, p, 101)
		assert.Equal(t, 0.03, p[0])
	}

	_, err = svc.SimulateRates(context.Background(), SimulateRatesCommand{
		InitialRate: 0.03, Horizon: 2, Steps: 0, Paths: 5, Model: "vasicek",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = svc.SimulateRates(context.Background(), SimulateRatesCommand{
		InitialRate: 0.03, Horizon: -1, Steps: 10, Paths: 5, Model: "vasicek",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	got, err = svc.SimulateRates(context.Background(), SimulateRatesCommand{
		InitialRate: 0.05, Horizon: 1e6, Steps: 100, Paths: 5, Model: "black-derman-toy",
	})
	assert.ErrorIs(t, err, domain.ErrNumericDegenerate)
	assert.Nil(t, got)
}

func TestSimulateRates_GridLimit(t *testing.T) {
	svc, rec := newService(t, Options{Limits: Limits{MaxPaths: 1000, MaxSteps: 1000, MaxCells: 50000, ComparePaths: 10, CompareRatePaths: 10}})

	_, err := svc.SimulateRates(context.Background(), SimulateRatesCommand{
		InitialRate: 0.05, Horizon: 1, Steps: 100, Paths: 1000, Model: "vasicek",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Empty(t, rec.calls)

	_, err = svc.SimulateRates(context.Background(), SimulateRatesCommand{
		InitialRate: 0.05, Horizon: 1, Steps: 100, Paths: 400, Model: "vasicek",
	})
	assert.NoError(t, err)
}

func TestSimulateRates_CancelledContext(t *testing.T) {
	svc, _ := newService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SimulateRates(ctx, SimulateRatesCommand{
		InitialRate: 0.05, Horizon: 1, Steps: 100, Paths: 5, Model: "vasicek",
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompare_DefaultModels(t *testing.T) {
	svc, _ := newService(t, Options{Limits: Limits{MaxPaths: 1000, MaxSteps: 1000, ComparePaths: 2000, CompareRatePaths: 500}})

	got, err := svc.Compare(context.Background(), CompareCommand{
		Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "call",
	})
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "Black-Scholes", got.Entries[0].Name)
	assert.InDelta(t, 10.450583572185565, got.Entries[0].Price, 1e-9)
	assert.Equal(t, "Monte Carlo", got.Entries[1].Name)
	assert.InDelta(t, 10.45, got.Entries[1].Price, 1.5)
}

func TestCompare_AllModelsInRequestOrder(t *testing.T) {
	svc, rec := newService(t, Options{Limits: Limits{MaxPaths: 1000, MaxSteps: 1000, ComparePaths: 500, CompareRatePaths: 300}})

	got, err := svc.Compare(context.Background(), CompareCommand{
		Spot: 100, Strike: 105, Maturity: 0.5, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "put",
		Models: []string{"black-derman-toy", "Vasicek", "monte-carlo", "hull-white", "black-scholes", "vasicek"},
	})
	require.NoError(t, err)

	names := make([]string, 0, len(got.Entries))
	for _, e := range got.Entries {
		names = append(names, e.Name)
		assert.Greater(t, e.Price, 0.0, e.Name)
	}
	assert.Equal(t, []string{"Black Derman Toy", "Vasicek", "Monte Carlo", "Hull White", "Black-Scholes"}, names)
	assert.Len(t, rec.calls, 4)
}

func TestCompare_Errors(t *testing.T) {
	svc, _ := newService(t, Options{})
	ctx := context.Background()
	base := CompareCommand{Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "call"}

	cmd := base
	cmd.Models = []string{"black-scholes", "heston"}
	_, err := svc.Compare(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	cmd = base
	cmd.Volatility = 0
	cmd.Models = []string{"black-scholes"}
	_, err = svc.Compare(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrNumericDegenerate)
}

func TestCompare_AnalyticOnlyIgnoresDailyGrid(t *testing.T) {
	svc, _ := newService(t, Options{})

	got, err := svc.Compare(context.Background(), CompareCommand{
		Spot: 100, Strike: 100, Maturity: 0.001, RiskFreeRate: 0.05, Volatility: 0.2,
		OptionType: "call", Models: []string{"black-scholes"},
	})
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Greater(t, got.Entries[0].Price, 0.0)
}

func TestRunnerRejection(t *testing.T) {
	busy := errors.New("busy")
	svc, rec := newService(t, Options{Runner: rejectingRunner{err: busy}})

	_, err := svc.PriceMonteCarlo(context.Background(), atm)
	assert.ErrorIs(t, err, busy)

	_, err = svc.Compare(context.Background(), CompareCommand{
		Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "call",
	})
	assert.ErrorIs(t, err, busy)
	require.NotEmpty(t, rec.calls)
	assert.True(t, rec.calls[0].failed)
}

func TestCache_SecondCallIsServedFromCache(t *testing.T) {
	svc, rec := newService(t, Options{Cache: newMemoryCache(), CachePrefix: "test"})
	ctx := context.Background()

	first, err := svc.PriceMonteCarlo(ctx, atm)
	require.NoError(t, err)
	second, err := svc.PriceMonteCarlo(ctx, atm)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, rec.calls, 1)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)

	cmd := atm
	cmd.Seed = seed(99)
	_, err = svc.PriceMonteCarlo(ctx, cmd)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 2)
	assert.Equal(t, 2, rec.misses)
}

func TestPriceBlackScholes(t *testing.T) {
	svc, rec := newService(t, Options{Cache: newMemoryCache()})

	got, err := svc.PriceBlackScholes(context.Background(), BlackScholesCommand{
		Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "CALL",
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.450583572185565, got.Price, 1e-9)
	assert.InDelta(t, 0.636830651175619, got.Greeks.Delta, 1e-9)

	again, err := svc.PriceBlackScholes(context.Background(), BlackScholesCommand{
		Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "call",
	})
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, rec.hits)

	_, err = svc.PriceBlackScholes(context.Background(), BlackScholesCommand{
		Spot: 100, Strike: 100, Maturity: 0, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "call",
	})
	assert.ErrorIs(t, err, domain.ErrNumericDegenerate)
}

func TestPriceZeroCouponBond(t *testing.T) {
	svc, _ := newService(t, Options{})

	got, err := svc.PriceZeroCouponBond(context.Background(), ZeroCouponBondCommand{InitialRate: 0.05, Maturity: 1})
	require.NoError(t, err)
	want, err := DefaultModels().Vasicek.BondPrice(0.05, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, want, got.Price)
	assert.Equal(t, DefaultModels().Vasicek, got.Model)

	zero, err := svc.PriceZeroCouponBond(context.Background(), ZeroCouponBondCommand{InitialRate: 0.05, Maturity: 0, Face: 1000})
	require.NoError(t, err)
	assert.InDelta(t, 1000, zero.Price, 1e-9)

	_, err = svc.PriceZeroCouponBond(context.Background(), ZeroCouponBondCommand{InitialRate: 0.05, Maturity: 1, Face: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestModelDefaults(t *testing.T) {
	d, err := NewModelDefaults(config.RateModelsConfig{
		Vasicek:        config.VasicekConfig{Speed: 0.1, LongRun: 0.05, Sigma: 0.01},
		HullWhite:      config.HullWhiteConfig{Speed: 0.1, Sigma: 0.01, ForwardRate: 0.05},
		BlackDermanToy: config.BlackDermanToyConfig{Sigma: 0.2},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultModels(), d)

	m, err := d.Model(domain.RateModelBlackDermanToy)
	require.NoError(t, err)
	assert.Equal(t, domain.RateModelBlackDermanToy, m.Name())

	_, err = NewModelDefaults(config.RateModelsConfig{HullWhite: config.HullWhiteConfig{Speed: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Monte Carlo with Vasicek rates", ModelLabel(domain.RateModelVasicek))
	assert.Equal(t, "Monte Carlo with Hull-White rates", ModelLabel(domain.RateModelHullWhite))
	assert.Equal(t, "Monte Carlo with Black-Derman-Toy rates", ModelLabel(domain.RateModelBlackDermanToy))
	assert.Equal(t, "Black Derman Toy", comparisonName(domain.RateModelBlackDermanToy))
}
