package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.User, error) {
	var item domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, stripe_customer_id, role, created_at, updated_at
		 FROM users
		 WHERE stripe_customer_id = ?
		 LIMIT 1`,
		customerID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateRole(ctx context.Context, db *gorm.DB, id snowflake.ID, role string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users
		 SET role = ?, updated_at = ?
		 WHERE id = ?`,
		role,
		time.Now().UTC(),
		id,
	).Error
}
