package billing

import (
	"github.com/scribelabs/scribe/internal/billing/repository"
	"github.com/scribelabs/scribe/internal/billing/service"
	"github.com/scribelabs/scribe/internal/billing/stripe"
	"github.com/scribelabs/scribe/internal/billing/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(stripe.NewProvider),
	fx.Provide(repository.ProvideWebhookEvents),
	fx.Provide(webhook.NewService),
	fx.Provide(service.NewCheckoutService),
)
