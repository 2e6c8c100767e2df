package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/hydro-agent/internal/domain/auth"
	"github.com/yanqian/hydro-agent/internal/domain/hydro"
	"github.com/yanqian/hydro-agent/internal/domain/hydro/reference"
	"github.com/yanqian/hydro-agent/internal/domain/querylog"
	"github.com/yanqian/hydro-agent/internal/domain/realestate"
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/infra/config"
	"github.com/yanqian/hydro-agent/internal/infra/hrfco"
	"github.com/yanqian/hydro-agent/internal/infra/molit"
	"github.com/yanqian/hydro-agent/internal/infra/querylogrepo"
	"github.com/yanqian/hydro-agent/internal/infra/scheduler"
	"github.com/yanqian/hydro-agent/internal/infra/stationstore"
	"github.com/yanqian/hydro-agent/internal/infra/upstream"
	httpiface "github.com/yanqian/hydro-agent/internal/interface/http"
	"github.com/yanqian/hydro-agent/internal/interface/tools"
	"github.com/yanqian/hydro-agent/pkg/util"
)

func provideReference(cfg *config.Config, logger *slog.Logger) (*reference.Data, error) {
	data, err := reference.Load(cfg.Reference.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("reference data loaded", "version", data.Version, "path", cfg.Reference.Path)
	return data, nil
}

func provideHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 8
	return &http.Client{Transport: transport}
}

func upstreamConfig(cfg *config.Config, name, baseURL, apiKey string, placement upstream.KeyPlacement) upstream.Config {
	return upstream.Config{
		Name:              name,
		BaseURL:           baseURL,
		APIKey:            apiKey,
		KeyPlacement:      placement,
		Timeout:           cfg.Upstream.Timeout,
		MaxAttempts:       cfg.Upstream.MaxAttempts,
		InitialBackoff:    cfg.Upstream.BaseBackoff,
		MaxBackoff:        cfg.Upstream.MaxBackoff,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
		Breaker: upstream.BreakerConfig{
			MaxRequests:      cfg.Upstream.Breaker.MaxRequests,
			Interval:         cfg.Upstream.Breaker.Interval,
			Timeout:          cfg.Upstream.Breaker.Timeout,
			FailureThreshold: cfg.Upstream.Breaker.FailureThreshold,
		},
	}
}

func provideHRFCOClient(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *hrfco.Client {
	if strings.TrimSpace(cfg.HRFCO.APIKey) == "" {
		logger.Warn("hrfco api key not set, water data requests will fail")
	}
	requester := upstream.NewClient(upstreamConfig(cfg, "hrfco", cfg.HRFCO.BaseURL, cfg.HRFCO.APIKey, upstream.KeyInPath), httpClient, logger)
	return hrfco.NewClient(requester, upstream.Format(strings.ToLower(cfg.HRFCO.Format)), logger)
}

func provideMolitClient(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *molit.Client {
	if strings.TrimSpace(cfg.RealEstate.APIKey) == "" {
		logger.Warn("real estate api key not set, trade lookups will fail")
	}
	requester := upstream.NewClient(upstreamConfig(cfg, "molit", cfg.RealEstate.BaseURL, cfg.RealEstate.APIKey, upstream.KeyInQuery), httpClient, logger)
	return molit.NewClient(requester, cfg.RealEstate.PageSize, logger)
}

func provideStationStore(cfg *config.Config, logger *slog.Logger) (station.Store, func()) {
	noop := func() {}
	if !cfg.Directory.Valkey.Enabled {
		return stationstore.NewMemoryStore(), noop
	}
	opt, err := buildValkeyOptions(cfg.Directory.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return stationstore.NewMemoryStore(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return stationstore.NewMemoryStore(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return stationstore.NewMemoryStore(), noop
	}
	logger.Info("station valkey store enabled", "addr", cfg.Directory.Valkey.Addr)
	return stationstore.NewValkeyStore(client, cfg.Directory.Valkey.Prefix, cfg.Directory.Valkey.TTL), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideDirectory(cfg *config.Config, lister station.Lister, store station.Store, logger *slog.Logger) *station.Directory {
	return station.NewDirectory(station.Config{TTL: cfg.Directory.TTL, FailureBackoff: cfg.Directory.FailureBackoff}, lister, store, util.NowUTC, logger)
}

func provideQueryLogRepository(cfg *config.Config, logger *slog.Logger) (querylog.Repository, func()) {
	fallback := querylogrepo.NewMemoryRepository(cfg.QueryLog.Capacity)
	noop := func() {}
	dsn := strings.TrimSpace(cfg.QueryLog.Postgres.DSN)
	if dsn == "" {
		logger.Info("query log postgres dsn not set, using memory repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback, noop
	}
	if cfg.QueryLog.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.QueryLog.Postgres.MaxConns
	}
	if cfg.QueryLog.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.QueryLog.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	repo := querylogrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("query log schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("query log postgres repository enabled")
	return repo, pool.Close
}

func provideHydroConfig(cfg *config.Config) hydro.Config {
	return hydro.Config{MaxStations: cfg.Resolver.MaxStations}
}

func provideRealEstateService(cfg *config.Config, source *molit.Client, ref *reference.Data, logger *slog.Logger) realestate.Service {
	return realestate.NewService(realestate.Config{RecentLimit: cfg.RealEstate.RecentLimit}, source, ref, util.NowUTC, logger)
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideMCPHandler(cfg *config.Config, t *tools.Tools) httpiface.MCPHandler {
	if !cfg.MCP.Enabled {
		return nil
	}
	return tools.NewHTTPHandler(tools.NewServer(cfg, t))
}

func provideScheduler(cfg *config.Config, directory *station.Directory, logger *slog.Logger) *scheduler.Scheduler {
	return scheduler.New(directory, cfg.Directory.RefreshInterval, logger)
}
