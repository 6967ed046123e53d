package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert writes the grant unless one already exists for the order.
	// It reports whether this call created the record.
	Insert(ctx context.Context, db *gorm.DB, delivery *DigitalDelivery) (bool, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID int64) (*DigitalDelivery, error)
}
