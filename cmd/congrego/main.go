package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/audit"
	"github.com/congrego/congrego/internal/clock"
	"github.com/congrego/congrego/internal/config"
	"github.com/congrego/congrego/internal/event"
	"github.com/congrego/congrego/internal/events"
	"github.com/congrego/congrego/internal/inscription"
	"github.com/congrego/congrego/internal/ledger"
	"github.com/congrego/congrego/internal/logger"
	"github.com/congrego/congrego/internal/migration"
	"github.com/congrego/congrego/internal/notify"
	"github.com/congrego/congrego/internal/payment"
	"github.com/congrego/congrego/internal/seed"
	"github.com/congrego/congrego/internal/server"
	"github.com/congrego/congrego/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		fx.Invoke(func(cfg config.Config, conn *gorm.DB, node *snowflake.Node) error {
			if cfg.IsProduction() {
				return nil
			}
			return seed.EnsureDemoEvent(conn, node)
		}),

		events.Module,
		audit.Module,
		event.Module,
		inscription.Module,
		ledger.Module,
		payment.Module,
		notify.Module,
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
