package user

import (
	"github.com/worktugal/worktugal/internal/user/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user.store",
	fx.Provide(repository.Provide),
)
