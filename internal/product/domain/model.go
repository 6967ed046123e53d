package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a catalog entry. Metadata carries the type-specific fulfillment
// settings: "file" for a single static download, "maps" (true) for offerings
// fulfilled as one archive per selected map, "message" for contact products.
type Product struct {
	ID         int64             `json:"id" gorm:"primaryKey"`
	Name       string            `json:"name" gorm:"type:text;not null"`
	PriceCents int64             `json:"price_cents" gorm:"not null"`
	Type       string            `json:"type" gorm:"type:text;not null"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	Active     bool              `json:"active" gorm:"not null;default:true"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

const (
	TypeDownload = "download"
	TypeDelivery = "delivery"
	TypeGift     = "gift"
)
