package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/wichananm65/grocery-backend/internal/pricing"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Addr        string
	Environment string
	LogLevel    string
	CORSOrigins string

	Store         string
	CartStore     string
	DatabaseURL   string
	RunMigrations bool

	Redis        RedisConfig
	GuestCartTTL time.Duration

	KafkaBrokers    []string
	KafkaOrderTopic string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	Pricing             pricing.Policy
	CheckoutMaxAttempts int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func defaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("STORE", StoreMemory)
	v.SetDefault("CART_STORE", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GUEST_CART_TTL", "168h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_ORDER_TOPIC", "grocery.orders")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "72h")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", pricing.DefaultFreeShippingThreshold.String())
	v.SetDefault("SHIPPING_FEE", pricing.DefaultShippingFee.String())
	v.SetDefault("TAX_RATE", pricing.DefaultTaxRate.String())
	v.SetDefault("CHECKOUT_MAX_ATTEMPTS", 3)
}

// Load reads the environment, plus a .env file in the working directory when
// one exists, over the defaults above.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:          v.GetString("ADDR"),
		Environment:   v.GetString("ENVIRONMENT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		CORSOrigins:   v.GetString("CORS_ORIGINS"),
		Store:         strings.ToLower(v.GetString("STORE")),
		CartStore:     strings.ToLower(v.GetString("CART_STORE")),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		RunMigrations: v.GetBool("RUN_MIGRATIONS"),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		GuestCartTTL:        v.GetDuration("GUEST_CART_TTL"),
		KafkaOrderTopic:     v.GetString("KAFKA_ORDER_TOPIC"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		AdminEmail:          strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		CheckoutMaxAttempts: v.GetInt("CHECKOUT_MAX_ATTEMPTS"),
	}
	if cfg.CartStore == "" {
		cfg.CartStore = cfg.Store
	}
	for _, b := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	var err error
	if cfg.Pricing.FreeShippingThreshold, err = money(v, "FREE_SHIPPING_THRESHOLD"); err != nil {
		return nil, err
	}
	if cfg.Pricing.ShippingFee, err = money(v, "SHIPPING_FEE"); err != nil {
		return nil, err
	}
	if cfg.Pricing.TaxRate, err = money(v, "TAX_RATE"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func money(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}

	switch c.CartStore {
	case StoreMemory, StorePostgres:
		if c.CartStore != c.Store {
			return fmt.Errorf("CART_STORE=%s needs STORE=%s", c.CartStore, c.CartStore)
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required when CART_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown CART_STORE %q", c.CartStore)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.CheckoutMaxAttempts < 1 {
		return errors.New("CHECKOUT_MAX_ATTEMPTS must be at least 1")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}
