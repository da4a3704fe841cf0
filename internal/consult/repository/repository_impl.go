package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/consult/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBooking(ctx context.Context, db *gorm.DB, booking *domain.ConsultBooking) error {
	return db.WithContext(ctx).Create(booking).Error
}

func (r *repo) FindBooking(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ConsultBooking, error) {
	var item domain.ConsultBooking
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, service_type, status, notes, created_at, updated_at
		 FROM consult_bookings
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

func (r *repo) UpdateBookingStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE consult_bookings
		 SET status = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *domain.ConsultSession) error {
	return db.WithContext(ctx).Create(session).Error
}
