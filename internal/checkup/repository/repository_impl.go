package repository

import (
	"context"

	"github.com/worktugal/worktugal/internal/checkup/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.CheckupRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindLatestByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.CheckupRecord, error) {
	var item domain.CheckupRecord
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM compliance_checkups
		 WHERE email = ?
		 ORDER BY sequence_number DESC
		 LIMIT 1`,
		email,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, email string, afterID int64, limit int) ([]domain.CheckupRecord, error) {
	query := db.WithContext(ctx).Model(&domain.CheckupRecord{}).Order("id DESC").Limit(limit)
	if email != "" {
		query = query.Where("email = ?", email)
	}
	if afterID != 0 {
		query = query.Where("id < ?", afterID)
	}

	var items []domain.CheckupRecord
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
