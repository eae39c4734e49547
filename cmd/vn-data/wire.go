//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/google/wire"

	"vn-data/internal/app"
	"vn-data/internal/provider/cafef"
	"vn-data/internal/provider/tcbs"
	"vn-data/internal/realtime"
)

// App holds application dependencies built by Wire.
type App struct {
	Config      *app.Config
	Logger      *slog.Logger
	Historical  *cafef.Fetcher
	Fundamental *tcbs.Client
	Realtime    realtime.Options
	REST        *resty.Client
}

// InitializeApp builds App via Wire.
// Caller must call a.Close() when done.
func InitializeApp() (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvidePacketSaver,
		app.ProvideRenderer,
		app.ProvideHistoricalFetcher,
		app.ProvideFundamentalClient,
		app.ProvideRealtimeOptions,
		app.ProvideRESTClient,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
