package migration

import (
	"github.com/xtreino/platform/internal/config"
	fulfillmentdomain "github.com/xtreino/platform/internal/fulfillment/domain"
	orderdomain "github.com/xtreino/platform/internal/order/domain"
	productdomain "github.com/xtreino/platform/internal/product/domain"
	reconciledomain "github.com/xtreino/platform/internal/reconcile/domain"
	userdomain "github.com/xtreino/platform/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Local sqlite/mysql setups get the model-derived schema;
			// versioned migrations target the production database.
			return conn.AutoMigrate(
				&orderdomain.Order{},
				&orderdomain.Registration{},
				&userdomain.User{},
				&productdomain.Product{},
				&fulfillmentdomain.DigitalDelivery{},
				&reconciledomain.EventRecord{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
