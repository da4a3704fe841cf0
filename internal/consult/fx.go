package consult

import (
	"github.com/worktugal/worktugal/internal/consult/repository"
	"github.com/worktugal/worktugal/internal/consult/service"
	"go.uber.org/fx"
)

var Module = fx.Module("consult.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
