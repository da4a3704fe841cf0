package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *CheckupRecord) error
	FindLatestByEmail(ctx context.Context, db *gorm.DB, email string) (*CheckupRecord, error)
	List(ctx context.Context, db *gorm.DB, email string, afterID int64, limit int) ([]CheckupRecord, error)
}
