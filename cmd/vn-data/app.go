package main

import (
	"vn-data/internal/provider"
)

// providers lists the data providers held by a, in close order.
func (a *App) providers() []provider.DataProvider {
	return []provider.DataProvider{a.Historical, a.Fundamental}
}

// Close releases provider connections.
func (a *App) Close() {
	for _, dp := range a.providers() {
		if err := dp.Close(); err != nil {
			a.Logger.Warn("close provider", "provider", dp.GetName(), "error", err)
			continue
		}
		a.Logger.Debug("provider closed", "provider", dp.GetName())
	}
	a.REST.GetClient().CloseIdleConnections()
}
