package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	ListMine(ctx context.Context, limit int) ([]Response, error)
	Summary(ctx context.Context) ([]SummaryRow, error)
	CreateRegistration(ctx context.Context, req CreateRegistrationRequest) (*RegistrationResponse, error)
}

type CreateRequest struct {
	Title          string         `json:"title"`
	Description    *string        `json:"description"`
	UnitPrice      float64        `json:"unit_price"`
	Currency       string         `json:"currency_id"`
	Quantity       int            `json:"quantity"`
	Kind           string         `json:"kind"`
	PreferenceID   string         `json:"preference_id"`
	ProductID      *string        `json:"product_id"`
	ProductOptions map[string]any `json:"product_options"`
}

type CreateRegistrationRequest struct {
	EventName string     `json:"event_name"`
	EventDate *time.Time `json:"event_date"`
	UnitPrice float64    `json:"unit_price"`
}

type Response struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Description       *string        `json:"description,omitempty"`
	AmountCents       int64          `json:"amount_cents"`
	Currency          string         `json:"currency"`
	Quantity          int            `json:"quantity"`
	Status            string         `json:"status"`
	Kind              string         `json:"kind"`
	ExternalReference string         `json:"external_reference"`
	PreferenceID      string         `json:"preference_id,omitempty"`
	BuyerEmail        string         `json:"buyer_email,omitempty"`
	ProductID         *string        `json:"product_id,omitempty"`
	ProductOptions    map[string]any `json:"product_options,omitempty"`
	TokenAmount       int64          `json:"token_amount,omitempty"`
	PaymentID         string         `json:"payment_id,omitempty"`
	PaidAt            *time.Time     `json:"paid_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

type RegistrationResponse struct {
	ID                string     `json:"id"`
	EventName         string     `json:"event_name"`
	EventDate         *time.Time `json:"event_date,omitempty"`
	AmountCents       int64      `json:"amount_cents"`
	Status            string     `json:"status"`
	ExternalReference string     `json:"external_reference"`
	CreatedAt         time.Time  `json:"created_at"`
}

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrInvalidEvent    = errors.New("invalid_event")
	ErrNotFound        = errors.New("not_found")
)
