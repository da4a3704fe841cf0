package payment

import (
	"github.com/worktugal/worktugal/internal/config"
	"github.com/worktugal/worktugal/internal/payment/domain"
	"github.com/worktugal/worktugal/internal/payment/reconciler"
	"github.com/worktugal/worktugal/internal/payment/repository"
	"github.com/worktugal/worktugal/internal/payment/service"
	"github.com/worktugal/worktugal/internal/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(provideVerifier),
	fx.Provide(provideClient),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(reconciler.New),
)

func provideVerifier(cfg config.Config) domain.Verifier {
	return stripe.NewWebhook(cfg.StripeWebhookSecret)
}

func provideClient(cfg config.Config) domain.ProviderClient {
	return stripe.NewClient(cfg.StripeAPIKey)
}
