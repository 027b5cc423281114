package ai

import (
	"github.com/scribelabs/scribe/internal/ai/openai"
	"github.com/scribelabs/scribe/internal/ai/repository"
	"github.com/scribelabs/scribe/internal/ai/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ai.service",
	fx.Provide(openai.NewProvider),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
