package partner

import (
	"github.com/worktugal/worktugal/internal/partner/repository"
	"github.com/worktugal/worktugal/internal/partner/service"
	"go.uber.org/fx"
)

var Module = fx.Module("partner.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
