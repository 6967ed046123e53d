package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, user *User) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindByUID(ctx context.Context, db *gorm.DB, uid string) (*User, error)
	Update(ctx context.Context, db *gorm.DB, user *User) error
	// AddTokens applies a relative credit so concurrent writers never
	// overwrite each other's balance.
	AddTokens(ctx context.Context, db *gorm.DB, id int64, amount int64) error
	// RaiseTokensTo asserts a floor: the balance is raised to the given
	// value only when the stored value has drifted below it.
	RaiseTokensTo(ctx context.Context, db *gorm.DB, id int64, floor int64) error
}
