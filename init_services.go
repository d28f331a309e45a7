// Package main: service katmanı başlatma.
//
// initServices, service'leri repository'ler ve hub ile oluşturur.
// E-posta bildirimi yalnızca RESEND_API_KEY, RESEND_FROM ve NOTIFY_EMAILS
// doluysa açılır.
package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/config"
	"github.com/akinalp/pricelist/pkg/email"
	"github.com/akinalp/pricelist/pkg/ratelimit"
	"github.com/akinalp/pricelist/services"
	"github.com/akinalp/pricelist/ws"
)

// Services, service instance'larını tutan container struct.
type Services struct {
	Auth      services.AuthService
	User      services.UserService
	PriceList services.PriceListService
	Sweeper   *services.SessionSweeper
}

// RateLimiters, rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login *ratelimit.LoginRateLimiter
}

func initServices(repos *Repositories, hub ws.EventPublisher, cfg *config.Config, logger *zap.Logger) (*Services, *RateLimiters) {
	var notifier email.Notifier
	if cfg.Email.Enabled() {
		notifier = email.NewResendNotifier(
			cfg.Email.ResendAPIKey,
			cfg.Email.FromEmail,
			cfg.Email.AppURL,
			cfg.Email.Language,
			cfg.Email.Recipients,
		)
		logger.Info("email notifications enabled",
			zap.String("from", cfg.Email.FromEmail),
			zap.Int("recipients", len(cfg.Email.Recipients)),
		)
	}

	svcs := &Services{
		Auth: services.NewAuthService(
			repos.User,
			repos.Session,
			hub,
			cfg.Session.Secret,
			cfg.Session.TTL,
			logger,
		),
		User:      services.NewUserService(repos.User, repos.Session, hub, logger),
		PriceList: services.NewPriceListService(repos.PriceList, hub, notifier, cfg.Cache.TTL, logger),
		Sweeper:   services.NewSessionSweeper(repos.Session, cfg.Session.SweepInterval, logger),
	}

	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow),
	}
	return svcs, limiters
}

// Close, arka plandaki bildirimleri bekler ve limiter temizliğini durdurur.
func (s *Services) Close(limiters *RateLimiters) {
	s.PriceList.Close()
	limiters.Login.Stop()
}
