package repository

import (
	"context"

	"github.com/xtreino/platform/internal/fulfillment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, delivery *domain.DigitalDelivery) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(delivery)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID int64) (*domain.DigitalDelivery, error) {
	var item domain.DigitalDelivery
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
