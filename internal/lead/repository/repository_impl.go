package repository

import (
	"context"

	"github.com/worktugal/worktugal/internal/lead/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertLead(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	return db.WithContext(ctx).Create(lead).Error
}

func (r *repo) InsertContact(ctx context.Context, db *gorm.DB, contact *domain.ContactRequest) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) InsertApplication(ctx context.Context, db *gorm.DB, application *domain.AccountantApplication) error {
	return db.WithContext(ctx).Create(application).Error
}

func (r *repo) ListLeads(ctx context.Context, db *gorm.DB, afterID int64, limit int) ([]domain.Lead, error) {
	query := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Order("id DESC").
		Limit(limit)
	if afterID > 0 {
		query = query.Where("id < ?", afterID)
	}

	var items []domain.Lead
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
