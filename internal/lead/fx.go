package lead

import (
	"github.com/worktugal/worktugal/internal/lead/repository"
	"github.com/worktugal/worktugal/internal/lead/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lead.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
