package identity

import (
	"github.com/scribelabs/scribe/internal/identity/client"
	"github.com/scribelabs/scribe/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(client.New),
	fx.Provide(service.NewVerifier),
)
