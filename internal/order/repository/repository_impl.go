package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/xtreino/platform/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindOrderByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var item domain.Order
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

func (r *repo) FindOrderByExternalReference(ctx context.Context, db *gorm.DB, ref string) (*domain.Order, error) {
	var item domain.Order
	err := db.WithContext(ctx).
		Where("external_reference = ?", ref).
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

func (r *repo) SetOrderExternalReference(ctx context.Context, db *gorm.DB, id int64, ref string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET external_reference = ? WHERE id = ?`,
		ref,
		id,
	).Error
}

func (r *repo) SetOrderTokenAmount(ctx context.Context, db *gorm.DB, id int64, amount int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET token_amount = ? WHERE id = ? AND token_amount = 0`,
		amount,
		id,
	).Error
}

func (r *repo) MarkOrderPaid(ctx context.Context, db *gorm.DB, id int64, paymentID string, paidAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, payment_id = ?, payment_status = ?, paid_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusPaid,
		paymentID,
		"approved",
		paidAt,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListOrdersByOwnerColumn(ctx context.Context, db *gorm.DB, column, value string, limit int) ([]domain.Order, error) {
	if !ownerColumnAllowed(column) {
		return nil, fmt.Errorf("unknown owner column %q", column)
	}

	var items []domain.Order
	q := db.WithContext(ctx).
		Where(fmt.Sprintf("%s = ?", column), value).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func ownerColumnAllowed(column string) bool {
	for _, lookup := range domain.OwnerLookups {
		if lookup.Column == column {
			return true
		}
	}
	return false
}

func (r *repo) CountOrders(ctx context.Context, db *gorm.DB) ([]domain.SummaryRow, error) {
	var rows []domain.SummaryRow
	err := db.WithContext(ctx).Raw(
		`SELECT status, kind, COUNT(1) AS count
		 FROM orders
		 GROUP BY status, kind`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CreateRegistration(ctx context.Context, db *gorm.DB, reg *domain.Registration) error {
	return db.WithContext(ctx).Create(reg).Error
}

func (r *repo) FindRegistrationByExternalReference(ctx context.Context, db *gorm.DB, ref string) (*domain.Registration, error) {
	var item domain.Registration
	err := db.WithContext(ctx).
		Where("external_reference = ?", ref).
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

func (r *repo) MarkRegistrationPaid(ctx context.Context, db *gorm.DB, id int64, paymentID string, paidAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE registrations
		 SET status = ?, payment_id = ?, payment_status = ?, paid_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusPaid,
		paymentID,
		"approved",
		paidAt,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
