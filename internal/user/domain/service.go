package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// EnsureProfile returns the caller's profile, creating it on first
	// authenticated access.
	EnsureProfile(ctx context.Context) (*Response, error)
	UpdateProfile(ctx context.Context, req UpdateRequest) (*Response, error)
	// CreditTokens resolves the purchasing user by email first, uid as a
	// fallback, and adds the amount to their balance.
	CreditTokens(ctx context.Context, email, uid string, amount int64) (*User, error)
	// SyncTokenBalance raises a drifted-low balance back to the sum of the
	// user's confirmed token purchases.
	SyncTokenBalance(ctx context.Context, userID int64) error
}

type UpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Team        *string `json:"team"`
}

type Response struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Team        string    `json:"team,omitempty"`
	Tokens      int64     `json:"tokens"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidAmount   = errors.New("invalid_amount")
)
