package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/zsmartex/tradecore/fees"
	"github.com/zsmartex/tradecore/risk"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Trading   TradingConfig   `mapstructure:"trading"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port    int      `mapstructure:"port"`
	Symbols []string `mapstructure:"symbols"`
}

type DatabaseConfig struct {
	// Driver is either "postgres" or "pebble".
	Driver  string `mapstructure:"driver"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"sslmode"`
	Path    string `mapstructure:"path"`
}

type TradingConfig struct {
	MinOrderSize float64 `mapstructure:"min_order_size"`
	MaxOrderSize float64 `mapstructure:"max_order_size"`
	// MarketPriceCeilingMultiplier scales the book-walk cost estimate of a
	// market buy before it is reserved.
	MarketPriceCeilingMultiplier float64 `mapstructure:"market_price_ceiling_multiplier"`
	HistoryLimit                 int     `mapstructure:"history_limit"`
}

type FeeTierConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Maker     float64 `mapstructure:"maker"`
	Taker     float64 `mapstructure:"taker"`
}

type FeesConfig struct {
	Tiers    []FeeTierConfig `mapstructure:"tiers"`
	Lookback time.Duration   `mapstructure:"lookback"`
}

type RiskConfig struct {
	PositionLimits     map[string]float64 `mapstructure:"position_limits"`
	FrequencyWindow    time.Duration      `mapstructure:"frequency_window"`
	FrequencyCap       int64              `mapstructure:"frequency_cap"`
	DeviationWindow    int                `mapstructure:"deviation_window"`
	DeviationThreshold float64            `mapstructure:"deviation_threshold"`
}

type NotifyConfig struct {
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Influx  InfluxConfig  `mapstructure:"influx"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	// Topics is the path of the yaml file mapping events to topics.
	Topics string `mapstructure:"topics"`
}

type InfluxConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type WebhookConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	// JWTPublicKey is a base64 encoded PEM public key.
	JWTPublicKey string `mapstructure:"jwt_public_key"`
}

type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window"`
	Max    int           `mapstructure:"max"`
}

type JobsConfig struct {
	DepthReconcileSeconds uint64 `mapstructure:"depth_reconcile_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tradecore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tradecore")
	}

	v.SetEnvPrefix("TRADECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.symbols", []string{"BTC/USDT"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "tradecore")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "./data/tradecore")

	v.SetDefault("trading.min_order_size", 0)
	v.SetDefault("trading.max_order_size", 0)
	v.SetDefault("trading.market_price_ceiling_multiplier", 1.05)
	v.SetDefault("trading.history_limit", 50)

	v.SetDefault("fees.tiers", []map[string]interface{}{
		{"threshold": 0, "maker": 0.0015, "taker": 0.002},
		{"threshold": 100000, "maker": 0.001, "taker": 0.0015},
		{"threshold": 1000000, "maker": 0.0008, "taker": 0.001},
	})
	v.SetDefault("fees.lookback", 30*24*time.Hour)

	v.SetDefault("risk.frequency_window", time.Minute)
	v.SetDefault("risk.frequency_cap", 20)
	v.SetDefault("risk.deviation_window", 10)
	v.SetDefault("risk.deviation_threshold", 0.2)

	v.SetDefault("notify.kafka.enabled", false)
	v.SetDefault("notify.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("notify.kafka.topics", "config/mq.yml")
	v.SetDefault("notify.influx.enabled", false)
	v.SetDefault("notify.influx.database", "tradecore")
	v.SetDefault("notify.webhook.enabled", false)
	v.SetDefault("notify.webhook.url", "http://localhost:4000/webhook/order-book")
	v.SetDefault("notify.webhook.timeout", 5*time.Second)

	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.max", 100)

	v.SetDefault("jobs.depth_reconcile_seconds", 30)

	v.SetDefault("log.level", "info")
}

// overrideFromEnv keeps the environment names the deployment scripts
// already export.
func overrideFromEnv(config *Config) {
	if host := os.Getenv("DATABASE_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DATABASE_PORT"); port != "" {
		config.Database.Port = port
	}
	if user := os.Getenv("DATABASE_USER"); user != "" {
		config.Database.User = user
	}
	if pass := os.Getenv("DATABASE_PASS"); pass != "" {
		config.Database.Pass = pass
	}
	if name := os.Getenv("DATABASE_NAME"); name != "" {
		config.Database.Name = name
	}
	if sslmode := os.Getenv("DATABASE_SSLMODE"); sslmode != "" {
		config.Database.SSLMode = sslmode
	}
	if url := os.Getenv("INFLUXDB_URL"); url != "" {
		config.Notify.Influx.URL = url
		config.Notify.Influx.Enabled = true
	}
	if database := os.Getenv("INFLUXDB_DATABASE"); database != "" {
		config.Notify.Influx.Database = database
	}
	if url := os.Getenv("ORDER_BOOK_WEBHOOK_URL"); url != "" {
		config.Notify.Webhook.URL = url
		config.Notify.Webhook.Enabled = true
	}
	if key := os.Getenv("JWT_PUBLIC_KEY"); key != "" {
		config.Auth.JWTPublicKey = key
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		config.Log.Level = lvl
	}
}

func (c *Config) FeeTable() (fees.Table, error) {
	tiers := make([]fees.Tier, 0, len(c.Fees.Tiers))
	for _, t := range c.Fees.Tiers {
		tiers = append(tiers, fees.Tier{
			Threshold: decimal.NewFromFloat(t.Threshold),
			MakerRate: decimal.NewFromFloat(t.Maker),
			TakerRate: decimal.NewFromFloat(t.Taker),
		})
	}

	return fees.NewTable(tiers)
}

func (c *Config) RiskConfig() risk.Config {
	limits := make(map[string]decimal.Decimal, len(c.Risk.PositionLimits))
	for asset, limit := range c.Risk.PositionLimits {
		// viper lower-cases map keys
		limits[strings.ToUpper(asset)] = decimal.NewFromFloat(limit)
	}

	return risk.Config{
		PositionLimits:     limits,
		FrequencyWindow:    c.Risk.FrequencyWindow,
		FrequencyCap:       c.Risk.FrequencyCap,
		DeviationWindow:    c.Risk.DeviationWindow,
		DeviationThreshold: decimal.NewFromFloat(c.Risk.DeviationThreshold),
	}
}
