package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/partner/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, submission *domain.PartnerSubmission) error {
	return db.WithContext(ctx).Create(submission).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PartnerSubmission, error) {
	var item domain.PartnerSubmission
	err := db.WithContext(ctx).Raw(
		`SELECT id, business_name, slug, email, website, description, status,
			order_id, created_at, updated_at
		 FROM partner_submissions
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkPaymentCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE partner_submissions
		 SET status = ?, order_id = ?, updated_at = ?
		 WHERE id = ?`,
		domain.StatusPaymentCompleted,
		orderID,
		time.Now().UTC(),
		id,
	).Error
}
