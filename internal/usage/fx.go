package usage

import (
	"github.com/scribelabs/scribe/internal/usage/repository"
	"github.com/scribelabs/scribe/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
