package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/migration"
	"github.com/worktugal/worktugal/internal/observability"
	"github.com/worktugal/worktugal/internal/server"
	"github.com/worktugal/worktugal/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
