package review

import (
	"github.com/worktugal/worktugal/internal/review/repository"
	"github.com/worktugal/worktugal/internal/review/service"
	"go.uber.org/fx"
)

var Module = fx.Module("review.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
