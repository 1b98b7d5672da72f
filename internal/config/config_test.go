package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-market-auth/internal/model"
)

func setBaseEnv(t *testing.T) {
	t.Helper()

	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("SEED_MARKETS", "")
	t.Setenv("SEED_MANAGER_USERNAME", "")
	t.Setenv("SEED_MANAGER_PASSWORD", "")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("JWT_REFRESH_TTL", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DB_MIN_CONNS", "")
	t.Setenv("TRUSTED_PROXIES", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, "rt", cfg.RefreshCookieName)
	assert.Equal(t, "/api/v1/auth/refresh", cfg.RefreshCookiePath)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.SeedMarkets)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_TrustedProxies(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7 ,fd00::/8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.7/32"),
		netip.MustParsePrefix("fd00::/8"),
	}, cfg.TrustedProxies)
}

func TestLoad_SeedMarkets(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SEED_MARKETS", "cholon:Cho Lon, BENTHANH:Ben Thanh,TANDINH")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []model.Market{
		{Code: "CHOLON", Name: "Cho Lon"},
		{Code: "BENTHANH", Name: "Ben Thanh"},
		{Code: "TANDINH", Name: "TANDINH"},
	}, cfg.SeedMarkets)
}

func TestLoad_Production(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "Production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing access secret", key: "JWT_SECRET", value: ""},
		{name: "missing refresh secret", key: "JWT_REFRESH_SECRET", value: ""},
		{name: "secrets must differ", key: "JWT_REFRESH_SECRET", value: "access-secret"},
		{name: "unknown driver", key: "STORE_DRIVER", value: "mongo"},
		{name: "postgres without url", key: "STORE_DRIVER", value: "postgres"},
		{name: "seed manager without password", key: "SEED_MANAGER_USERNAME", value: "boss"},
		{name: "market without code", key: "SEED_MARKETS", value: ":Nameless"},
		{name: "min conns above max", key: "DB_MIN_CONNS", value: "50"},
		{name: "malformed proxy cidr", key: "TRUSTED_PROXIES", value: "10.0.0.0/40"},
		{name: "malformed proxy address", key: "TRUSTED_PROXIES", value: "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}
