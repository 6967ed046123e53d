package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Order represents one purchase attempt. It is created before the buyer is
// redirected to the payment gateway and mutated only by the reconciliation
// workflow once a matching approved payment arrives.
type Order struct {
	ID                int64             `json:"id" gorm:"primaryKey"`
	Title             string            `json:"title" gorm:"type:text;not null"`
	Description       *string           `json:"description,omitempty" gorm:"type:text"`
	AmountCents       int64             `json:"amount_cents" gorm:"not null"`
	Currency          string            `json:"currency" gorm:"type:text;not null;default:BRL"`
	Quantity          int               `json:"quantity" gorm:"not null;default:1"`
	Status            string            `json:"status" gorm:"type:text;not null;index"`
	Kind              string            `json:"kind" gorm:"type:text;not null;default:plain"`
	ExternalReference string            `json:"external_reference" gorm:"type:text;not null;uniqueIndex"`
	PreferenceID      string            `json:"preference_id" gorm:"type:text"`
	BuyerEmail        string            `json:"buyer_email" gorm:"type:text;index"`
	BuyerUID          string            `json:"buyer_uid" gorm:"type:text;index"`
	Customer          string            `json:"customer,omitempty" gorm:"type:text;index"`
	UserID            string            `json:"user_id,omitempty" gorm:"type:text;index"`
	ProductID         *int64            `json:"product_id,omitempty"`
	ProductOptions    datatypes.JSONMap `json:"product_options,omitempty" gorm:"type:jsonb"`
	TokenAmount       int64             `json:"token_amount,omitempty"`
	PaymentID         string            `json:"payment_id,omitempty" gorm:"type:text"`
	PaymentStatus     string            `json:"payment_status,omitempty" gorm:"type:text"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// Registration is an event/training booking paid through the same gateway
// but created by the booking flow. It carries no fulfillment side effect.
type Registration struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	EventName         string     `json:"event_name" gorm:"type:text;not null"`
	EventDate         *time.Time `json:"event_date,omitempty"`
	BuyerEmail        string     `json:"buyer_email" gorm:"type:text;index"`
	BuyerUID          string     `json:"buyer_uid" gorm:"type:text;index"`
	AmountCents       int64      `json:"amount_cents" gorm:"not null"`
	Status            string     `json:"status" gorm:"type:text;not null;index"`
	ExternalReference string     `json:"external_reference" gorm:"type:text;not null;uniqueIndex"`
	PaymentID         string     `json:"payment_id,omitempty" gorm:"type:text"`
	PaymentStatus     string     `json:"payment_status,omitempty" gorm:"type:text"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at" gorm:"not null"`
}

func (Registration) TableName() string { return "registrations" }

const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

const (
	KindTokens         = "tokens"
	KindDigitalProduct = "digital_product"
	KindPlain          = "plain"
)

// External references are prefixed by purchase kind. Digital-product orders
// created by the checkout page embed their own order id after the prefix,
// which is what the reconciliation fallback strategy relies on.
const (
	RefPrefixTokens       = "tok-"
	RefPrefixDigital      = "dig-"
	RefPrefixPlain        = "ord-"
	RefPrefixRegistration = "reg-"
)

// OwnerLookup names one strategy for finding a buyer's orders. Historical
// rows were written with inconsistent identity fields, so reads fall back
// across columns in a fixed order and stop at the first non-empty result.
type OwnerLookup struct {
	Name   string
	Column string
	// ByUID selects the uid identity value instead of the email.
	ByUID bool
}

var OwnerLookups = []OwnerLookup{
	{Name: "buyer_email", Column: "buyer_email"},
	{Name: "legacy_customer", Column: "customer"},
	{Name: "buyer_uid", Column: "buyer_uid", ByUID: true},
	{Name: "legacy_user_id", Column: "user_id", ByUID: true},
}
