// Package main: handler katmanı başlatma.
//
// Handler'lar "thin"dir: HTTP parse + service call + response write.
package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/config"
	"github.com/akinalp/pricelist/handlers"
	"github.com/akinalp/pricelist/ws"
)

// Handlers, handler instance'larını tutan container struct.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Price  *handlers.PriceHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler
	WS     *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		Auth:   handlers.NewAuthHandler(svcs.Auth, svcs.User, limiters.Login),
		Price:  handlers.NewPriceHandler(svcs.PriceList, logger),
		Admin:  handlers.NewAdminHandler(svcs.User),
		Health: handlers.NewHealthHandler(version, cfg.Storage.Driver, hub),
		WS:     ws.NewHandler(hub, svcs.Auth, cfg.Server.CORSOrigins),
	}
}
