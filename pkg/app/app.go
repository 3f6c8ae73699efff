// Package app 服务启动骨架：配置、日志、指标、业务依赖与 HTTP 服务的装配与优雅关停
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
)

// ServiceInitializer 构建业务依赖，返回的 cleanup 在关停时调用
type ServiceInitializer func(cfg *config.Config, m *metrics.Metrics) (any, func(), error)

// GinRegistrar 向 gin 引擎注册路由
type GinRegistrar func(e *gin.Engine, srv any)

// Builder 应用构建器
type Builder struct {
	name        string
	configPath  string
	initService ServiceInitializer
	registrars  []GinRegistrar
	middlewares []gin.HandlerFunc
}

// NewBuilder 创建构建器
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// WithConfigPath 指定配置文件路径，为空时只使用默认值与环境变量
func (b *Builder) WithConfigPath(path string) *Builder {
	b.configPath = path
	return b
}

// WithService 设置业务依赖初始化函数
func (b *Builder) WithService(fn ServiceInitializer) *Builder {
	b.initService = fn
	return b
}

// WithGin 追加路由注册函数
func (b *Builder) WithGin(fn GinRegistrar) *Builder {
	b.registrars = append(b.registrars, fn)
	return b
}

// WithGinMiddleware 追加全局中间件，位于恢复、日志与指标中间件之后
func (b *Builder) WithGinMiddleware(mw ...gin.HandlerFunc) *Builder {
	b.middlewares = append(b.middlewares, mw...)
	return b
}

// Build 生成可运行的应用
func (b *Builder) Build() *App {
	return &App{builder: *b}
}

// App 已装配的应用
type App struct {
	builder Builder
}

// Run 启动服务并阻塞到收到 SIGINT/SIGTERM，启动失败时退出进程
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := a.run(ctx)
	stop()
	if err != nil {
		logger.Fatal(context.Background(), "Service exited with error", "service", a.builder.name, "error", err)
	}
}

func (a *App) run(ctx context.Context) error {
	b := a.builder

	var (
		cfg *config.Config
		err error
	)
	if b.configPath == "" {
		cfg, err = config.LoadWithDefaults("")
	} else {
		cfg, err = config.Load(b.configPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = b.name
	}

	if err := logger.Init(loggerConfig(cfg.Logger)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	m := metrics.New(b.name)
	if err := m.Register(nil); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = m.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	var (
		srv     any
		cleanup = func() {}
	)
	if b.initService != nil {
		srv, cleanup, err = b.initService(cfg, m)
		if err != nil {
			shutdown(metricsSrv, time.Second)
			return fmt.Errorf("init service: %w", err)
		}
	}
	defer cleanup()

	engine := NewEngine(cfg.Environment, m, b.middlewares...)
	for _, register := range b.registrars {
		register(engine, srv)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "service", b.name, "addr", httpSrv.Addr, "version", cfg.Version)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutdown signal received", "service", b.name)
	case err := <-errCh:
		if err != nil {
			shutdown(metricsSrv, time.Second)
			return fmt.Errorf("http server: %w", err)
		}
	}

	timeout := time.Duration(cfg.HTTP.ShutdownTimeout) * time.Second
	shutdown(httpSrv, timeout)
	shutdown(metricsSrv, timeout)
	logger.Info(context.Background(), "Service stopped", "service", b.name)
	return nil
}

// NewEngine 创建带基础中间件的 gin 引擎
func NewEngine(environment string, m *metrics.Metrics, extra ...gin.HandlerFunc) *gin.Engine {
	if environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(middleware.GinRecoveryMiddleware(), middleware.GinLoggingMiddleware())
	if m != nil {
		e.Use(middleware.GinMetricsMiddleware(m))
	}
	e.Use(extra...)
	return e
}

func shutdown(srv *http.Server, timeout time.Duration) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Server shutdown incomplete", "addr", srv.Addr, "error", err)
	}
}

func loggerConfig(c config.LoggerConfig) logger.Config {
	return logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
		WithCaller: c.WithCaller,
	}
}
