package domain

import (
	"context"
	"encoding/json"
	"time"
)

// WebhookEvent is the notification body the gateway posts. Only "payment"
// events are acted on; everything else is acknowledged and dropped.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Payment is the authoritative payment object fetched back from the
// gateway after a notification, reduced to the fields reconciliation needs.
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Description       string
	PayerEmail        string
	Amount            float64
}

const (
	PaymentStatusApproved = "approved"
	PaymentStatusPending  = "pending"
	PaymentStatusRejected = "rejected"
)

// Gateway fetches payments by id. Implemented by the Mercado Pago client.
type Gateway interface {
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// EventRecord is the idempotency ledger row for one gateway payment id.
// The unique payment id makes replayed notifications observable before any
// side effect runs.
type EventRecord struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	PaymentID         string     `json:"payment_id" gorm:"type:text;not null;uniqueIndex"`
	ExternalReference string     `json:"external_reference" gorm:"type:text"`
	Status            string     `json:"status" gorm:"type:text;not null"`
	ReceivedAt        time.Time  `json:"received_at" gorm:"not null"`
	ProcessedAt       *time.Time `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

// Result is the acknowledgement body returned to the gateway.
type Result struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
}

const (
	OutcomeIgnored          = "ignored"
	OutcomeNotApproved      = "not_approved"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomePaid             = "paid"
	OutcomeRegistrationPaid = "registration_paid"
	OutcomeNotFound         = "not_found"
	OutcomeStoreError       = "store_error"
)
