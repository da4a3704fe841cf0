package subscription

import (
	"github.com/worktugal/worktugal/internal/subscription/repository"
	"github.com/worktugal/worktugal/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
