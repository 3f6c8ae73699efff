// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// Redis 配置（分布式限流与结果缓存）
	Redis RedisConfig `mapstructure:"redis"`
	// 结果缓存配置
	Cache CacheConfig `mapstructure:"cache"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// 蒙特卡洛模拟配置
	Simulation SimulationConfig `mapstructure:"simulation"`
	// 短期利率模型默认参数
	RateModels RateModelsConfig `mapstructure:"rate_models"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
	// 优雅关停超时（秒）
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 主机地址
	Host string `mapstructure:"host"`
	// 端口
	Port int `mapstructure:"port"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db"`
	// 最大连接数
	MaxPoolSize int `mapstructure:"max_pool_size"`
	// 连接超时（秒）
	ConnTimeout int `mapstructure:"conn_timeout"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// Addr 返回 host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig 定价结果缓存
// 解析定价与固定种子的模拟结果由输入唯一确定，可按输入缓存。
type CacheConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// 后端：local 或 redis
	Backend string `mapstructure:"backend"`
	// 过期时间（秒）
	TTL int `mapstructure:"ttl"`
	// key 前缀
	Prefix string `mapstructure:"prefix"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level"`
	// 输出格式
	Format string `mapstructure:"format"`
	// 输出目标
	Output string `mapstructure:"output"`
	// 文件路径
	FilePath string `mapstructure:"file_path"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age"`
	// 是否压缩
	Compress bool `mapstructure:"compress"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// Prometheus 监听端口
	Port int `mapstructure:"port"`
	// 指标路径
	Path string `mapstructure:"path"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// 后端：local 或 redis
	Backend string `mapstructure:"backend"`
	// 每秒请求数
	QPS int `mapstructure:"qps"`
	// 突发容量
	Burst int `mapstructure:"burst"`
}

// SimulationConfig 蒙特卡洛模拟配置
type SimulationConfig struct {
	// 默认随机种子
	Seed uint64 `mapstructure:"seed"`
	// 单次请求允许的最大路径数
	MaxPaths int `mapstructure:"max_paths"`
	// 单次请求允许的最大步数
	MaxSteps int `mapstructure:"max_steps"`
	// 单个路径网格 paths × (steps+1) 的元素上限
	MaxCells int `mapstructure:"max_cells"`
	// 模型比较中蒙特卡洛路径数
	ComparePaths int `mapstructure:"compare_paths"`
	// 模型比较中随机利率模型路径数
	CompareRatePaths int `mapstructure:"compare_rate_paths"`
	// 并发执行模拟的 worker 数
	Workers int `mapstructure:"workers"`
	// 等待执行的模拟任务上限，超出时直接拒绝
	QueueCapacity int `mapstructure:"queue_capacity"`
}

// RateModelsConfig 利率模型参数
type RateModelsConfig struct {
	Vasicek        VasicekConfig        `mapstructure:"vasicek"`
	HullWhite      HullWhiteConfig      `mapstructure:"hull_white"`
	BlackDermanToy BlackDermanToyConfig `mapstructure:"black_derman_toy"`
}

// VasicekConfig dr = a(b - r)dt + σdW
type VasicekConfig struct {
	Speed   float64 `mapstructure:"speed"`
	LongRun float64 `mapstructure:"long_run"`
	Sigma   float64 `mapstructure:"sigma"`
}

// HullWhiteConfig dr = (θ(t) - ar)dt + σdW
type HullWhiteConfig struct {
	Speed       float64 `mapstructure:"speed"`
	Sigma       float64 `mapstructure:"sigma"`
	ForwardRate float64 `mapstructure:"forward_rate"`
}

// BlackDermanToyConfig 对数正态短期利率
type BlackDermanToyConfig struct {
	Sigma float64 `mapstructure:"sigma"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时仅使用默认值
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		// 读取配置文件（如果不存在则忽略）
		_ = v.ReadInConfig()
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	// 设置环境变量前缀，使用 _ 替代 .
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	if c.Simulation.MaxPaths <= 0 {
		return fmt.Errorf("simulation.max_paths must be positive")
	}
	if c.Simulation.MaxSteps <= 0 {
		return fmt.Errorf("simulation.max_steps must be positive")
	}
	if c.Simulation.MaxCells <= 0 {
		return fmt.Errorf("simulation.max_cells must be positive")
	}
	if c.Simulation.Workers <= 0 || c.Simulation.QueueCapacity <= 0 {
		return fmt.Errorf("simulation.workers and simulation.queue_capacity must be positive")
	}
	if c.RateModels.HullWhite.Speed <= 0 {
		return fmt.Errorf("rate_models.hull_white.speed must be positive")
	}
	if c.Cache.Enabled {
		if c.Cache.Backend != "local" && c.Cache.Backend != "redis" {
			return fmt.Errorf("unsupported cache.backend: %q", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive")
		}
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "local", "redis":
		default:
			return fmt.Errorf("unsupported rate_limit.backend: %q", c.RateLimit.Backend)
		}
		if c.RateLimit.QPS <= 0 || c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate_limit.qps and rate_limit.burst must be positive")
		}
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "pricing")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 5000)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 120)
	v.SetDefault("http.shutdown_timeout", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "local")
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.prefix", "pricing")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/pricing.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.backend", "local")
	v.SetDefault("rate_limit.qps", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.max_paths", 200000)
	v.SetDefault("simulation.max_steps", 10000)
	v.SetDefault("simulation.max_cells", 50000000)
	v.SetDefault("simulation.compare_paths", 10000)
	v.SetDefault("simulation.compare_rate_paths", 5000)
	v.SetDefault("simulation.workers", 4)
	v.SetDefault("simulation.queue_capacity", 64)

	v.SetDefault("rate_models.vasicek.speed", 0.1)
	v.SetDefault("rate_models.vasicek.long_run", 0.05)
	v.SetDefault("rate_models.vasicek.sigma", 0.01)
	v.SetDefault("rate_models.hull_white.speed", 0.1)
	v.SetDefault("rate_models.hull_white.sigma", 0.01)
	v.SetDefault("rate_models.hull_white.forward_rate", 0.05)
	v.SetDefault("rate_models.black_derman_toy.sigma", 0.2)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
