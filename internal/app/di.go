package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"vn-data/internal/provider"
	"vn-data/internal/provider/cafef"
	"vn-data/internal/provider/tcbs"
	"vn-data/internal/realtime"
	"vn-data/internal/saver"
	"vn-data/internal/slogx"
)

// ProvideConfig loads config from environment (for Wire).
func ProvideConfig() (*Config, error) {
	return LoadConfig()
}

// ProvideLogger builds the process logger from LOG_LEVEL (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	return slogx.NewDefault(cfg.LogLevel)
}

// ProvidePacketSaver creates PacketSaver from config (for Wire).
// Returns error if SaveFormat is not supported.
func ProvidePacketSaver(cfg *Config) (saver.PacketSaver, error) {
	ps := saver.NewPacketSaver(cfg.SaveFormat)
	if ps == nil {
		return nil, fmt.Errorf("unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return ps, nil
}

// ProvideRenderer creates the headless-browser renderer (for Wire). The
// browser is resolved lazily, so a machine without Chrome still starts.
func ProvideRenderer(cfg *Config) cafef.Renderer {
	return cafef.NewChromeRenderer(
		cfg.Render.ChromePath,
		cfg.UserAgent,
		time.Duration(cfg.Render.TimeoutSec)*time.Second,
		time.Duration(cfg.Render.SettleMS)*time.Millisecond,
	)
}

// ProvideHistoricalFetcher wires the cafef fetcher (for Wire).
// Caller must call Close() when shutting down.
func ProvideHistoricalFetcher(cfg *Config, r cafef.Renderer, ps saver.PacketSaver, logger *slog.Logger) *cafef.Fetcher {
	return cafef.NewFetcher(cafef.Options{
		APIURL:   cfg.Cafef.APIURL,
		PageSize: cfg.Cafef.PageSize,
		MaxPages: cfg.Cafef.MaxPages,
		Headers:  provider.Headers{UserAgent: cfg.UserAgent, Referer: cfg.Cafef.Referer},
		ProxyURL: cfg.ProxyURL,
	}, r, ps, logger.With("provider", "cafef"))
}

// ProvideFundamentalClient wires the TCBS client (for Wire).
func ProvideFundamentalClient(cfg *Config, logger *slog.Logger) *tcbs.Client {
	return tcbs.NewClient(tcbs.Options{
		BaseURL:  cfg.TCBS.BaseURL,
		Headers:  cfg.Headers(),
		ProxyURL: cfg.ProxyURL,
	}, logger.With("provider", "tcbs"))
}

// ProvideRealtimeOptions returns the poller options shared by every run;
// the command fills in the per-run fields (for Wire).
func ProvideRealtimeOptions(cfg *Config) realtime.Options {
	return realtime.Options{
		Interval: realtime.DefaultInterval,
		OutDir:   cfg.RealtimeDir(),
		Headers:  cfg.Headers(),
		ProxyURL: cfg.ProxyURL,
	}
}

// ProvideRESTClient creates the plain client used for symbol lists (for Wire).
func ProvideRESTClient(cfg *Config) *resty.Client {
	return provider.NewRESTClient(provider.ClientOptions{
		Timeout:  30 * time.Second,
		Headers:  cfg.Headers(),
		ProxyURL: cfg.ProxyURL,
	})
}
