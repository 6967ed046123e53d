package repository

import (
	"context"
	"strings"

	"github.com/xtreino/platform/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}

	var item domain.User
	err := db.WithContext(ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByUID(ctx context.Context, db *gorm.DB, uid string) (*domain.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, nil
	}

	var item domain.User
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Save(user).Error
}

func (r *repo) AddTokens(ctx context.Context, db *gorm.DB, id int64, amount int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET tokens = tokens + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount,
		id,
	).Error
}

func (r *repo) RaiseTokensTo(ctx context.Context, db *gorm.DB, id int64, floor int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET tokens = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND tokens < ?`,
		floor,
		id,
		floor,
	).Error
}
