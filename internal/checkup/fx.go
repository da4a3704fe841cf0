package checkup

import (
	"github.com/worktugal/worktugal/internal/checkup/repository"
	"github.com/worktugal/worktugal/internal/checkup/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkup.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
