package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateOrder(ctx context.Context, db *gorm.DB, order *Order) error
	FindOrderByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	FindOrderByExternalReference(ctx context.Context, db *gorm.DB, ref string) (*Order, error)
	SetOrderExternalReference(ctx context.Context, db *gorm.DB, id int64, ref string) error
	SetOrderTokenAmount(ctx context.Context, db *gorm.DB, id int64, amount int64) error
	// MarkOrderPaid transitions a pending order to paid. It reports whether
	// this call performed the transition; replays return false.
	MarkOrderPaid(ctx context.Context, db *gorm.DB, id int64, paymentID string, paidAt time.Time) (bool, error)
	ListOrdersByOwnerColumn(ctx context.Context, db *gorm.DB, column, value string, limit int) ([]Order, error)
	CountOrders(ctx context.Context, db *gorm.DB) ([]SummaryRow, error)

	CreateRegistration(ctx context.Context, db *gorm.DB, reg *Registration) error
	FindRegistrationByExternalReference(ctx context.Context, db *gorm.DB, ref string) (*Registration, error)
	MarkRegistrationPaid(ctx context.Context, db *gorm.DB, id int64, paymentID string, paidAt time.Time) (bool, error)
}

type SummaryRow struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
	Count  int64  `json:"count"`
}
