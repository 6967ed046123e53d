package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/xtreino/platform/internal/config"
	"github.com/xtreino/platform/internal/fulfillment"
	"github.com/xtreino/platform/internal/gateway/mercadopago"
	"github.com/xtreino/platform/internal/logger"
	"github.com/xtreino/platform/internal/migration"
	"github.com/xtreino/platform/internal/observability/metrics"
	"github.com/xtreino/platform/internal/order"
	"github.com/xtreino/platform/internal/product"
	"github.com/xtreino/platform/internal/reconcile"
	"github.com/xtreino/platform/internal/seed"
	"github.com/xtreino/platform/internal/server"
	"github.com/xtreino/platform/internal/user"
	"github.com/xtreino/platform/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		seed.Module,

		// Functional domains
		user.Module,
		product.Module,
		order.Module,
		fulfillment.Module,
		mercadopago.Module,
		reconcile.Module,

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
