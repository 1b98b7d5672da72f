package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-market-auth/internal/model"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	AppEnv                  string

	StoreDriver string
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	JWTSecret         string
	JWTRefreshSecret  string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	JWTIssuer         string
	RefreshCookieName string
	RefreshCookiePath string
	BcryptCost        int

	CORSOrigins      []string
	TrustedProxies   []netip.Prefix
	RateLimitRPM     int
	AuthRateLimitRPM int

	LogLevel string
	LogFile  string

	SeedManagerUsername    string
	SeedManagerPassword    string
	SeedManagerDisplayName string
	SeedMarkets            []model.Market
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	markets, err := parseMarkets(os.Getenv("SEED_MARKETS"))
	if err != nil {
		return nil, err
	}

	proxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 15*time.Second),
		AppEnv:                  strings.ToLower(getEnv("APP_ENV", "development")),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  getInt("DB_MAX_CONNS", 10),
		DBMinConns:  getInt("DB_MIN_CONNS", 1),

		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret:  strings.TrimSpace(os.Getenv("JWT_REFRESH_SECRET")),
		JWTAccessTTL:      getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:     getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		JWTIssuer:         getEnv("JWT_ISSUER", "go-market-auth"),
		RefreshCookieName: getEnv("REFRESH_COOKIE_NAME", "rt"),
		RefreshCookiePath: getEnv("REFRESH_COOKIE_PATH", "/api/v1/auth/refresh"),
		BcryptCost:        getInt("BCRYPT_COST", 12),

		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "*")),
		TrustedProxies:   proxies,
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  strings.TrimSpace(os.Getenv("LOG_FILE")),

		SeedManagerUsername:    strings.TrimSpace(os.Getenv("SEED_MANAGER_USERNAME")),
		SeedManagerPassword:    os.Getenv("SEED_MANAGER_PASSWORD"),
		SeedManagerDisplayName: getEnv("SEED_MANAGER_DISPLAY_NAME", "Market Manager"),
		SeedMarkets:            markets,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.JWTSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.SeedManagerUsername != "" && c.SeedManagerPassword == "" {
		return fmt.Errorf("SEED_MANAGER_PASSWORD is required when SEED_MANAGER_USERNAME is set")
	}

	return nil
}

// IsProduction switches refresh cookies to Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// parseMarkets reads "CODE:Name,CODE:Name". A bare code doubles as its name.
func parseMarkets(raw string) ([]model.Market, error) {
	entries := splitCSV(raw)
	markets := make([]model.Market, 0, len(entries))
	for _, entry := range entries {
		code, name, _ := strings.Cut(entry, ":")
		code = strings.ToUpper(strings.TrimSpace(code))
		name = strings.TrimSpace(name)
		if code == "" {
			return nil, fmt.Errorf("SEED_MARKETS: empty market code in %q", entry)
		}
		if name == "" {
			name = code
		}
		markets = append(markets, model.Market{Code: code, Name: name})
	}

	return markets, nil
}

// parseTrustedProxies reads a list of CIDRs or single addresses.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	entries := splitCSV(raw)
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
