package initializer

import (
	"log/slog"

	"github.com/amirasaad/topup/infra/provider/topupapi"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/provider/topup"
)

// initProviders registers a client for every provider with a base URL.
func initProviders(cfg *config.Providers, logger *slog.Logger) *topup.Registry {
	var clients []topup.Client
	if cfg != nil {
		if configured(cfg.SmileOne) {
			clients = append(clients, topupapi.NewSmileOne(cfg.SmileOne, logger))
		}
		if configured(cfg.Yokcash) {
			clients = append(clients, topupapi.NewYokcash(cfg.Yokcash, logger))
		}
		if configured(cfg.Hopestore) {
			clients = append(clients, topupapi.NewHopestore(cfg.Hopestore, logger))
		}
	}
	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, c.Name())
	}
	if len(clients) == 0 {
		logger.Warn("⚠️ [WARN] No top-up provider configured, orders cannot be fulfilled")
	} else {
		logger.Info("Top-up providers registered", "providers", names)
	}
	return topup.NewRegistry(logger, clients...)
}

func configured(p *config.ProviderAPI) bool {
	return p != nil && p.BaseURL != ""
}
