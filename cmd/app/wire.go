//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/news-reducer/internal/bootstrap"
	"github.com/yanqian/news-reducer/internal/domain/auth"
	"github.com/yanqian/news-reducer/internal/domain/summarizer"
	"github.com/yanqian/news-reducer/internal/infra/config"
	httpiface "github.com/yanqian/news-reducer/internal/interface/http"
	"github.com/yanqian/news-reducer/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSummaryConfig,
		provideAuthConfig,
		provideAnnotator,
		provideTokenCounter,
		provideRateLimiter,
		summarizer.NewService,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
