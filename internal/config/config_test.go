package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	require.Equal(t, "cart_id", cfg.CartCookieName)
	require.Equal(t, int64(50), cfg.PaymentMinAmount)
	require.Equal(t, "usd", cfg.PaymentCurrency)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CART_TTL_HOURS", "2")
	t.Setenv("PAYMENT_CURRENCY", "EUR")
	t.Setenv("COMMERCE_BASE_URL", "https://shop.example.com/wp-json/wc/v3/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, cfg.CartTTL)
	require.Equal(t, "eur", cfg.PaymentCurrency)
	require.Equal(t, "https://shop.example.com/wp-json/wc/v3", cfg.CommerceBaseURL)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.env")
	require.NoError(t, os.WriteFile(path, []byte("REDIS_ADDR=cache:6380\nPAYMENT_MIN_AMOUNT=100\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "cache:6380", cfg.RedisAddr)
	require.Equal(t, int64(100), cfg.PaymentMinAmount)
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("CART_TTL_HOURS", "0")
	_, err := Load()
	require.Error(t, err)
}
