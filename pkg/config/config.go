// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

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
	// 交易所配置
	Venue VenueConfig `mapstructure:"venue"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"8080"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"30"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"30"`
	// 每个客户端每秒请求数，0 表示不限流
	RateLimitQPS float64 `mapstructure:"rate_limit_qps" default:"0"`
	// 限流突发容量
	RateLimitBurst int `mapstructure:"rate_limit_burst" default:"20"`
}

// VenueConfig 交易所 REST 接入配置
type VenueConfig struct {
	// REST 根地址
	BaseURL string `mapstructure:"base_url" default:"https://www.okx.com"`
	// API Key
	APIKey string `mapstructure:"api_key"`
	// API Secret
	Secret string `mapstructure:"secret"`
	// API Passphrase
	Passphrase string `mapstructure:"passphrase"`
	// 是否为模拟盘（x-simulated-trading: 1）
	Sandbox bool `mapstructure:"sandbox" default:"false"`
	// 经纪商标识，作为 clOrdId 前缀与 tag
	BrokerID string `mapstructure:"broker_id" default:"e847386590ce4dBC"`
	// 默认保证金模式：cross / isolated
	DefaultMarginMode string `mapstructure:"default_margin_mode" default:"cross"`
	// 现货市价单默认计价单位：base / quote
	TargetCurrency string `mapstructure:"target_currency" default:"quote"`
	// 现货市价买单未给出成交额时是否必须提供价格
	MarketBuyRequiresPrice bool `mapstructure:"market_buy_requires_price" default:"true"`
	// 单笔下单是否走批量接口
	SingleOrderViaBatch bool `mapstructure:"single_order_via_batch" default:"false"`
	// 加载的市场类型
	MarketTypes []string `mapstructure:"market_types"`
	// 期权标的族，期权市场必须按族查询
	OptionFamilies []string `mapstructure:"option_families"`
	// 请求超时（秒）
	Timeout int `mapstructure:"timeout" default:"10"`
	// 出站限流（每秒请求数）
	RateLimitQPS float64 `mapstructure:"rate_limit_qps" default:"10"`
	// 出站限流突发容量
	RateLimitBurst int `mapstructure:"rate_limit_burst" default:"20"`
	// 熔断：连续失败次数阈值
	BreakerFailures uint32 `mapstructure:"breaker_failures" default:"5"`
	// 熔断：半开状态允许的请求数
	BreakerMaxRequests uint32 `mapstructure:"breaker_max_requests" default:"1"`
	// 熔断：打开状态持续时间（秒）
	BreakerTimeout int `mapstructure:"breaker_timeout" default:"30"`
}

// TimeoutDuration 请求超时
func (v VenueConfig) TimeoutDuration() time.Duration {
	return time.Duration(v.Timeout) * time.Second
}

// BreakerTimeoutDuration 熔断打开持续时间
func (v VenueConfig) BreakerTimeoutDuration() time.Duration {
	return time.Duration(v.BreakerTimeout) * time.Second
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用，未启用时市场缓存不做预热
	Enabled bool `mapstructure:"enabled" default:"false"`
	// 主机地址
	Host string `mapstructure:"host" default:"localhost"`
	// 端口
	Port int `mapstructure:"port" default:"6379"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db" default:"0"`
	// 最大连接数
	MaxPoolSize int `mapstructure:"max_pool_size" default:"10"`
	// 连接超时（秒）
	ConnTimeout int `mapstructure:"conn_timeout" default:"5"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"3"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"3"`
	// 市场快照过期时间（秒）
	MarketTTL int `mapstructure:"market_ttl" default:"21600"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 是否启用，未启用时订单事件不外发
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 订单事件主题
	OrderTopic string `mapstructure:"order_topic" default:"connectivity.orders"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"10"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" default:"info"`
	// 输出格式
	Format string `mapstructure:"format" default:"json"`
	// 输出目标
	Output string `mapstructure:"output" default:"stdout"`
	// 文件路径
	FilePath string `mapstructure:"file_path" default:"logs/app.log"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size" default:"100"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups" default:"10"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age" default:"30"`
	// 是否压缩
	Compress bool `mapstructure:"compress" default:"true"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller" default:"true"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// 指标路径
	Path string `mapstructure:"path" default:"/metrics"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 设置配置文件
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时只使用默认值与环境变量
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 读取配置文件（如果不存在则忽略）
	_ = v.ReadInConfig()

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	// 设置环境变量前缀
	v.SetEnvPrefix("APP")
	// 自动绑定环境变量（使用 _ 替代 .）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 验证配置
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
	if c.Venue.BaseURL == "" {
		return fmt.Errorf("venue.base_url is required")
	}
	switch c.Venue.DefaultMarginMode {
	case "cross", "isolated":
	default:
		return fmt.Errorf("invalid venue.default_margin_mode: %q", c.Venue.DefaultMarginMode)
	}
	switch c.Venue.TargetCurrency {
	case "base", "quote":
	default:
		return fmt.Errorf("invalid venue.target_currency: %q", c.Venue.TargetCurrency)
	}
	if !validBrokerID(c.Venue.BrokerID) {
		return fmt.Errorf("invalid venue.broker_id: %q (at most 16 alphanumeric characters, starting with a letter)", c.Venue.BrokerID)
	}
	if c.Venue.RateLimitQPS < 0 {
		return fmt.Errorf("invalid venue.rate_limit_qps: %v", c.Venue.RateLimitQPS)
	}
	for _, t := range c.Venue.MarketTypes {
		switch t {
		case "spot", "margin", "swap", "future", "option":
		default:
			return fmt.Errorf("unknown venue.market_types entry: %q", t)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "connectivity")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)
	v.SetDefault("http.rate_limit_qps", 0)
	v.SetDefault("http.rate_limit_burst", 20)

	v.SetDefault("venue.base_url", "https://www.okx.com")
	v.SetDefault("venue.sandbox", false)
	v.SetDefault("venue.broker_id", "e847386590ce4dBC")
	v.SetDefault("venue.default_margin_mode", "cross")
	v.SetDefault("venue.target_currency", "quote")
	v.SetDefault("venue.market_buy_requires_price", true)
	v.SetDefault("venue.single_order_via_batch", false)
	v.SetDefault("venue.market_types", []string{"spot", "swap", "future", "option"})
	v.SetDefault("venue.option_families", []string{"BTC-USD", "ETH-USD"})
	v.SetDefault("venue.timeout", 10)
	v.SetDefault("venue.rate_limit_qps", 10)
	v.SetDefault("venue.rate_limit_burst", 20)
	v.SetDefault("venue.breaker_failures", 5)
	v.SetDefault("venue.breaker_max_requests", 1)
	v.SetDefault("venue.breaker_timeout", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)
	v.SetDefault("redis.market_ttl", 21600)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.order_topic", "connectivity.orders")
	v.SetDefault("kafka.write_timeout", 10)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func validBrokerID(id string) bool {
	if len(id) > 16 {
		return false
	}
	for i, r := range id {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !letter {
			return false
		}
		if !letter && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
