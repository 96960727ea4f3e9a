//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/oceanchat/oceanchat/internal/bootstrap"
	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/routing"
	"github.com/oceanchat/oceanchat/internal/infra/config"
	"github.com/oceanchat/oceanchat/internal/infra/provider"
	httpiface "github.com/oceanchat/oceanchat/internal/interface/http"
	"github.com/oceanchat/oceanchat/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideClock,
		provideMetrics,
		provideHTTPClient,
		provideRouterConfig,
		provideStore,
		provideEnvelopeCache,
		provideArgoSource,
		provideERDDAPSource,
		provideNOAASource,
		provideProviderClient,
		provideArchive,
		provideIngestService,
		provideScheduler,
		provideLocalDataService,
		nlquery.NewParser,
		routing.NewService,
		wire.Bind(new(routing.ExternalSource), new(*provider.Client)),
		wire.Bind(new(routing.LocalSource), new(*localdata.Service)),
		wire.Bind(new(httpiface.CoverageSource), new(*localdata.Service)),
		wire.Bind(new(httpiface.StatusSource), new(*provider.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
