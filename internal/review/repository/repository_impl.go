package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/review/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, review *domain.PaidReview) error {
	return db.WithContext(ctx).Create(review).Error
}

func (r *repo) FindBySession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.PaidReview, error) {
	var item domain.PaidReview
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, user_id, email, status, amount_total, currency,
			answers, created_at, updated_at
		 FROM paid_reviews
		 WHERE session_id = ?
		 LIMIT 1`,
		sessionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaidReview, error) {
	var item domain.PaidReview
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, user_id, email, status, amount_total, currency,
			answers, created_at, updated_at
		 FROM paid_reviews
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

func (r *repo) UpdateSubmission(ctx context.Context, db *gorm.DB, id snowflake.ID, answers datatypes.JSON, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE paid_reviews
		 SET answers = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		answers,
		status,
		time.Now().UTC(),
		id,
	).Error
}
