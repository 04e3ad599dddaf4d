package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	defaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, StoreMemory, cfg.CartStore)
	assert.Equal(t, "2000", cfg.Pricing.FreeShippingThreshold.String())
	assert.Equal(t, "150", cfg.Pricing.ShippingFee.String())
	assert.Equal(t, "0.05", cfg.Pricing.TaxRate.String())
	assert.Equal(t, 3, cfg.CheckoutMaxAttempts)
	assert.Equal(t, 168*time.Hour, cfg.GuestCartTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/grocery")
	t.Setenv("CART_STORE", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("TAX_RATE", "0.17")
	t.Setenv("GUEST_CART_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, StoreRedis, cfg.CartStore)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "0.17", cfg.Pricing.TaxRate.String())
	assert.Equal(t, 24*time.Hour, cfg.GuestCartTTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]any{
		"postgres without url":   {"STORE": "postgres"},
		"unknown store":          {"STORE": "mongo"},
		"redis without address":  {"CART_STORE": "redis"},
		"cart store mismatch":    {"CART_STORE": "postgres"},
		"bad tax rate":           {"TAX_RATE": "five percent"},
		"negative fee":           {"SHIPPING_FEE": "-1"},
		"zero attempts":          {"CHECKOUT_MAX_ATTEMPTS": 0},
		"production sans secret": {"ENVIRONMENT": "production"},
		"admin without password": {"ADMIN_EMAIL": "admin@grocery.pk"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newViper(values))
			assert.Error(t, err)
		})
	}
}
