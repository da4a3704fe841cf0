package repository

import (
	"context"

	"github.com/worktugal/worktugal/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert is an atomic conditional write keyed by customer_id. Concurrent
// deliveries resolve last-write-wins at the database, never through a
// read-then-write sequence.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *domain.SubscriptionRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_records (
			id, customer_id, subscription_id, status, price_id,
			current_period_end, cancel_at_period_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET
			subscription_id = excluded.subscription_id,
			status = excluded.status,
			price_id = excluded.price_id,
			current_period_end = excluded.current_period_end,
			cancel_at_period_end = excluded.cancel_at_period_end,
			updated_at = excluded.updated_at`,
		record.ID,
		record.CustomerID,
		record.SubscriptionID,
		record.Status,
		record.PriceID,
		record.CurrentPeriodEnd,
		record.CancelAtPeriodEnd,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.SubscriptionRecord, error) {
	var item domain.SubscriptionRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, subscription_id, status, price_id,
			current_period_end, cancel_at_period_end, created_at, updated_at
		 FROM subscription_records
		 WHERE customer_id = ?
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
