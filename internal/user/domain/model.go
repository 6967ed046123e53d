package domain

import "time"

// User is an account's business state. The auth provider owns credentials
// and sessions; this row carries the profile and the token balance.
type User struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UID         string    `json:"uid" gorm:"type:text;uniqueIndex"`
	Email       string    `json:"email" gorm:"type:text;uniqueIndex"`
	DisplayName string    `json:"display_name" gorm:"type:text"`
	Phone       string    `json:"phone" gorm:"type:text"`
	Team        string    `json:"team" gorm:"type:text"`
	Tokens      int64     `json:"tokens" gorm:"not null;default:0"`
	Role        string    `json:"role" gorm:"type:text;not null;default:user"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string { return "users" }

const (
	RoleUser    = "user"
	RoleViewer  = "viewer"
	RoleEditor  = "editor"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)
