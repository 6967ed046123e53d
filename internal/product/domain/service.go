package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, activeOnly bool) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Name      string         `json:"name"`
	UnitPrice float64        `json:"unit_price"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata"`
	Active    *bool          `json:"active"`
}

type Response struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PriceCents int64          `json:"price_cents"`
	Type       string         `json:"type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Active     bool           `json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrInvalidType  = errors.New("invalid_type")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
