package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Deliverable is one downloadable or contactable item granted by a
// confirmed digital purchase.
type Deliverable struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// DigitalDelivery is the grant record produced once per fulfilled
// digital-product order. The unique order id keeps gateway retries from
// producing duplicate grants.
type DigitalDelivery struct {
	ID            int64          `json:"id" gorm:"primaryKey"`
	OrderID       int64          `json:"order_id" gorm:"not null;uniqueIndex"`
	CustomerEmail string         `json:"customer_email" gorm:"type:text"`
	CustomerUID   string         `json:"customer_uid" gorm:"type:text"`
	ProductID     *int64         `json:"product_id,omitempty"`
	ProductName   string         `json:"product_name" gorm:"type:text"`
	Deliverables  datatypes.JSON `json:"deliverables" gorm:"type:jsonb;not null"`
	Status        string         `json:"status" gorm:"type:text;not null"`
	PaymentID     string         `json:"payment_id" gorm:"type:text"`
	DeliveredAt   time.Time      `json:"delivered_at" gorm:"not null"`
}

func (DigitalDelivery) TableName() string { return "digital_deliveries" }

const StatusDelivered = "delivered"

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidIndex   = errors.New("invalid_index")
	ErrMissingFileURL = errors.New("missing_file_url")
)
