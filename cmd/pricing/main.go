package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	httphandler "github.com/wyfcoding/optionpricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionpricing/pkg/app"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/concurrency"
	configpkg "github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
)

type AppContext struct {
	AppService *application.PricingService
	Limiter    ratelimit.RateLimiter
	Metrics    *metrics.Metrics
	Config     *configpkg.Config
}

const BootstrapName = "pricing"

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	configPath := flag.String("config", configpkg.GetEnv("PRICING_CONFIG", "configs/pricing/config.toml"), "path to TOML config file")
	flag.Parse()

	app.NewBuilder(BootstrapName).
		WithConfigPath(*configPath).
		WithService(initService).
		WithGin(registerGin).
		WithGinMiddleware(middleware.GinCORSMiddleware()).
		Build().
		Run()
}

func registerGin(e *gin.Engine, srv any) {
	ctx := srv.(*AppContext)
	e.Use(middleware.RateLimitMiddleware(ctx.Limiter, ctx.Config.RateLimit, ctx.Metrics.RecordRateLimited))
	httpHandler := httphandler.NewPricingHandler(ctx.AppService)
	httpHandler.RegisterRoutes(e)
	slog.Default().Info("HTTP routes registered", "service", BootstrapName)
}

func initService(c *configpkg.Config, m *metrics.Metrics) (any, func(), error) {
	slog.Info("initializing service dependencies...")
	ctx := context.Background()

	models, err := application.NewModelDefaults(c.RateModels)
	if err != nil {
		return nil, nil, err
	}

	var redisClient *redis.Client
	needRedis := (c.Cache.Enabled && c.Cache.Backend == "redis") ||
		(c.RateLimit.Enabled && c.RateLimit.Backend == "redis")
	if needRedis {
		redisClient, err = cache.NewRedisClient(ctx, c.Redis)
		if err != nil {
			return nil, nil, err
		}
	}

	var resultCache cache.Cache
	if c.Cache.Enabled {
		ttl := time.Duration(c.Cache.TTL) * time.Second
		if c.Cache.Backend == "redis" {
			resultCache = cache.NewRedis(redisClient, ttl)
		} else {
			local, err := cache.NewLocal(ctx, ttl)
			if err != nil {
				if redisClient != nil {
					_ = redisClient.Close()
				}
				return nil, nil, err
			}
			resultCache = local
		}
	}

	var limiter ratelimit.RateLimiter
	if c.RateLimit.Enabled {
		if c.RateLimit.Backend == "redis" {
			limiter = ratelimit.NewRedisRateLimiter(redisClient)
		} else {
			limiter = ratelimit.NewLocalRateLimiter(10 * time.Minute)
		}
	}

	pool := concurrency.NewPool(concurrency.PoolConfig{
		Name:        "simulation",
		MaxWorkers:  c.Simulation.Workers,
		MaxCapacity: c.Simulation.QueueCapacity,
	})

	appService := application.NewPricingService(application.Options{
		Models: models,
		Limits: application.Limits{
			MaxPaths:         c.Simulation.MaxPaths,
			MaxSteps:         c.Simulation.MaxSteps,
			MaxCells:         c.Simulation.MaxCells,
			ComparePaths:     c.Simulation.ComparePaths,
			CompareRatePaths: c.Simulation.CompareRatePaths,
		},
		DefaultSeed: c.Simulation.Seed,
		Runner:      pool,
		Cache:       resultCache,
		CachePrefix: c.Cache.Prefix,
		Recorder:    m,
	})

	cleanup := func() {
		slog.Info("cleaning up resources...", "simulation_pool", pool.Stats())
		pool.Stop()
		// RedisCache.Close 会关闭共享客户端，这里统一关闭一次
		if resultCache != nil && c.Cache.Backend != "redis" {
			_ = resultCache.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	return &AppContext{
		AppService: appService,
		Limiter:    limiter,
		Metrics:    m,
		Config:     c,
	}, cleanup, nil
}
