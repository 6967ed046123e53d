package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent records a payment id once. It reports whether this call
	// inserted the row; replays return false.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, paymentID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id int64, processedAt time.Time) error
}

type Service interface {
	ProcessNotification(ctx context.Context, event WebhookEvent) (Result, error)
}
