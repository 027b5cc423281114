package user

import (
	"github.com/scribelabs/scribe/internal/user/repository"
	"github.com/scribelabs/scribe/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
