package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbershop-booking/internal/auth"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, k := range []string{
		"ADMIN_EMAILS", "BOOKING_COOLDOWN", "BOOKING_WINDOW_DAYS", "SHOP_TIMEZONE",
		"PORT", "WEB_PORT", "KAFKA_BROKERS", "REDIS_ADDR", "PUBLIC_API_KEY", "TRUST_PROXY",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultAdminEmails, cfg.AdminEmails)
	assert.Equal(t, 5*time.Minute, cfg.BookingCooldown)
	assert.Equal(t, 30, cfg.BookingWindowDays)
	assert.Equal(t, "Europe/Belgrade", cfg.ShopTimezone.String())
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "8080", cfg.WebPort)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAILS", "a@shop.rs, b@shop.rs ,")
	t.Setenv("BOOKING_COOLDOWN", "90s")
	t.Setenv("BOOKING_WINDOW_DAYS", "14")
	t.Setenv("SHOP_TIMEZONE", "UTC")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@shop.rs", "b@shop.rs"}, cfg.AdminEmails)
	assert.Equal(t, 90*time.Second, cfg.BookingCooldown)
	assert.Equal(t, 14, cfg.BookingWindowDays)
	assert.Equal(t, time.UTC, cfg.ShopTimezone)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.TrustProxy)
}

func TestLoadBadTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SHOP_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}
