package seed

import (
	"context"
	"errors"
	"time"

	productdomain "github.com/xtreino/platform/internal/product/domain"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog entries sold before the admin UI existed. Their ids are fixed
// because paid pending orders still reference them.
var legacyCatalog = []productdomain.Product{
	{
		ID:         101,
		Name:       "Pacote de Sensibilidade",
		PriceCents: 990,
		Type:       productdomain.TypeDownload,
		Metadata:   datatypes.JSONMap{"file": "SENSIBILIDADE.zip"},
		Active:     true,
	},
	{
		ID:         102,
		Name:       "Imagens de Call",
		PriceCents: 1490,
		Type:       productdomain.TypeDownload,
		Metadata:   datatypes.JSONMap{"maps": true},
		Active:     true,
	},
	{
		ID:         103,
		Name:       "Gelo Treinado",
		PriceCents: 2990,
		Type:       productdomain.TypeDelivery,
		Metadata:   datatypes.JSONMap{"message": "Olá! Comprei o Gelo Treinado e quero combinar a entrega."},
		Active:     true,
	},
}

// EnsureCatalog inserts the legacy products on startup. Existing rows are
// left untouched so catalog edits made through the API survive restarts.
func EnsureCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, product := range legacyCatalog {
			product.CreatedAt = now
			product.UpdatedAt = now
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).Create(&product).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

var Module = fx.Module("seed",
	fx.Invoke(func(db *gorm.DB) error {
		return EnsureCatalog(db)
	}),
)
