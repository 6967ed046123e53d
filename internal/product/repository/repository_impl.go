package repository

import (
	"context"

	"github.com/xtreino/platform/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var item domain.Product
	err := db.WithContext(ctx).
		Where("id = ?", id).
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

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Product, error) {
	var items []domain.Product
	q := db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
