package subscription

import (
	"github.com/scribelabs/scribe/internal/subscription/repository"
	"github.com/scribelabs/scribe/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
