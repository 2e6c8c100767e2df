package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	HRFCO      HRFCOConfig      `yaml:"hrfco"`
	RealEstate RealEstateConfig `yaml:"realEstate"`
	Directory  DirectoryConfig  `yaml:"directory"`
	QueryLog   QueryLogConfig   `yaml:"queryLog"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	MCP        MCPConfig        `yaml:"mcp"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	CORS         CORSConfig      `yaml:"cors"`
}

// RateLimitConfig drives the per-client request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// CORSConfig lists allowed browser origins; "*" allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// AuthConfig controls bearer-token validation on /api/v1 and /mcp.
type AuthConfig struct {
	Required bool          `yaml:"required"`
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// UpstreamConfig tunes the shared outbound request core.
type UpstreamConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"maxAttempts"`
	BaseBackoff       time.Duration `yaml:"baseBackoff"`
	MaxBackoff        time.Duration `yaml:"maxBackoff"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the per-upstream circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
}

// HRFCOConfig points at the flood control open API.
type HRFCOConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
	Format  string `yaml:"format"`
}

// RealEstateConfig points at the apartment transaction API.
type RealEstateConfig struct {
	BaseURL     string `yaml:"baseUrl"`
	APIKey      string `yaml:"apiKey"`
	PageSize    int    `yaml:"pageSize"`
	RecentLimit int    `yaml:"recentLimit"`
}

// DirectoryConfig controls the station directory cache.
type DirectoryConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	FailureBackoff  time.Duration `yaml:"failureBackoff"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	WarmOnStart     bool          `yaml:"warmOnStart"`
	Valkey          ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared directory store.
type ValkeyConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}

// QueryLogConfig selects where resolved queries are recorded.
type QueryLogConfig struct {
	Capacity int            `yaml:"capacity"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ReferenceConfig overrides the embedded alias and capacity tables.
type ReferenceConfig struct {
	Path string `yaml:"path"`
}

// ResolverConfig bounds the integrated resolver.
type ResolverConfig struct {
	MaxStations int `yaml:"maxStations"`
}

// MCPConfig controls the tool-calling endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORS.AllowedOrigins = splitList(v)
	}

	envBool("AUTH_REQUIRED", &cfg.Auth.Required)
	envString("AUTH_SECRET", &cfg.Auth.Secret)
	envString("AUTH_ISSUER", &cfg.Auth.Issuer)

	envDuration("UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)
	envInt("UPSTREAM_MAX_ATTEMPTS", &cfg.Upstream.MaxAttempts)
	envDuration("UPSTREAM_BASE_BACKOFF", &cfg.Upstream.BaseBackoff)
	envDuration("UPSTREAM_MAX_BACKOFF", &cfg.Upstream.MaxBackoff)
	if v := os.Getenv("UPSTREAM_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Upstream.RequestsPerSecond = parsed
		}
	}

	envString("HRFCO_BASE_URL", &cfg.HRFCO.BaseURL)
	envString("HRFCO_API_KEY", &cfg.HRFCO.APIKey)
	envString("HRFCO_FORMAT", &cfg.HRFCO.Format)

	envString("REAL_ESTATE_BASE_URL", &cfg.RealEstate.BaseURL)
	envString("REAL_ESTATE_API_KEY", &cfg.RealEstate.APIKey)

	envDuration("DIRECTORY_TTL", &cfg.Directory.TTL)
	envDuration("DIRECTORY_FAILURE_BACKOFF", &cfg.Directory.FailureBackoff)
	envDuration("DIRECTORY_REFRESH_INTERVAL", &cfg.Directory.RefreshInterval)
	envBool("DIRECTORY_WARM_ON_START", &cfg.Directory.WarmOnStart)
	envBool("VALKEY_ENABLED", &cfg.Directory.Valkey.Enabled)
	envString("VALKEY_ADDR", &cfg.Directory.Valkey.Addr)

	envString("QUERY_LOG_POSTGRES_DSN", &cfg.QueryLog.Postgres.DSN)
	if v := os.Getenv("QUERY_LOG_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.QueryLog.Postgres.MaxConns = int32(parsed)
		}
	}

	envString("REFERENCE_PATH", &cfg.Reference.Path)
	envInt("RESOLVER_MAX_STATIONS", &cfg.Resolver.MaxStations)
	envBool("MCP_ENABLED", &cfg.MCP.Enabled)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			CORS: CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Auth: AuthConfig{
			Required: false,
			Issuer:   "hydro-agent",
			TokenTTL: 24 * time.Hour,
		},
		Upstream: UpstreamConfig{
			Timeout:           10 * time.Second,
			MaxAttempts:       3,
			BaseBackoff:       500 * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		HRFCO: HRFCOConfig{
			BaseURL: "https://api.hrfco.go.kr",
			Format:  "json",
		},
		RealEstate: RealEstateConfig{
			BaseURL:     "https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade",
			PageSize:    1000,
			RecentLimit: 10,
		},
		Directory: DirectoryConfig{
			TTL:             time.Hour,
			FailureBackoff:  time.Minute,
			RefreshInterval: time.Hour,
			WarmOnStart:     true,
			Valkey: ValkeyConfig{
				Prefix: "hydro:stations",
				TTL:    24 * time.Hour,
			},
		},
		QueryLog: QueryLogConfig{
			Capacity: 500,
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
		},
		Resolver: ResolverConfig{MaxStations: 5},
		MCP: MCPConfig{
			Enabled: true,
			Name:    "hydro-agent",
			Version: "1.0.0",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Auth.Required && strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty when auth is required")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	if c.Upstream.MaxAttempts <= 0 {
		return errors.New("upstream.maxAttempts must be positive")
	}
	if c.Upstream.BaseBackoff <= 0 || c.Upstream.MaxBackoff < c.Upstream.BaseBackoff {
		return errors.New("upstream.baseBackoff must be positive and not exceed upstream.maxBackoff")
	}
	if c.Upstream.RequestsPerSecond < 0 {
		return errors.New("upstream.requestsPerSecond cannot be negative")
	}
	if strings.TrimSpace(c.HRFCO.BaseURL) == "" {
		return errors.New("hrfco.baseUrl cannot be empty")
	}
	switch strings.ToLower(c.HRFCO.Format) {
	case "json", "xml":
	default:
		return fmt.Errorf("hrfco.format must be json or xml, got %q", c.HRFCO.Format)
	}
	if strings.TrimSpace(c.RealEstate.BaseURL) == "" {
		return errors.New("realEstate.baseUrl cannot be empty")
	}
	if c.Directory.TTL <= 0 {
		return errors.New("directory.ttl must be positive")
	}
	if c.Directory.FailureBackoff < 0 {
		return errors.New("directory.failureBackoff cannot be negative")
	}
	if c.Directory.RefreshInterval < 0 {
		return errors.New("directory.refreshInterval cannot be negative")
	}
	if c.Directory.Valkey.Enabled && strings.TrimSpace(c.Directory.Valkey.Addr) == "" {
		return errors.New("directory.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Resolver.MaxStations <= 0 {
		return errors.New("resolver.maxStations must be positive")
	}
	return nil
}
