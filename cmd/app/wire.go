//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/hydro-agent/internal/bootstrap"
	"github.com/yanqian/hydro-agent/internal/domain/auth"
	"github.com/yanqian/hydro-agent/internal/domain/hydro"
	"github.com/yanqian/hydro-agent/internal/domain/querylog"
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/domain/trend"
	"github.com/yanqian/hydro-agent/internal/infra/config"
	"github.com/yanqian/hydro-agent/internal/infra/hrfco"
	httpiface "github.com/yanqian/hydro-agent/internal/interface/http"
	"github.com/yanqian/hydro-agent/internal/interface/tools"
	"github.com/yanqian/hydro-agent/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideReference,
		provideHTTPClient,
		provideHRFCOClient,
		provideMolitClient,
		provideStationStore,
		provideDirectory,
		provideQueryLogRepository,
		provideHydroConfig,
		provideRealEstateService,
		provideAuthConfig,
		provideMCPHandler,
		provideScheduler,
		hydro.NewResolver,
		hydro.NewService,
		querylog.NewService,
		trend.NewService,
		auth.NewService,
		tools.NewTools,
		wire.Bind(new(station.Lister), new(*hrfco.Client)),
		wire.Bind(new(hydro.SnapshotSource), new(*hrfco.Client)),
		wire.Bind(new(trend.SeriesSource), new(*hrfco.Client)),
		wire.Bind(new(hydro.StationSearcher), new(*station.Directory)),
		wire.Bind(new(trend.StationLookup), new(*station.Directory)),
		wire.Bind(new(httpiface.StationDirectory), new(*station.Directory)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
