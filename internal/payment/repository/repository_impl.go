package repository

import (
	"context"

	"github.com/worktugal/worktugal/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// InsertOrder is the idempotency boundary for duplicate webhook deliveries.
// The unique constraint on session_id arbitrates races between concurrent
// deliveries; a conflicting insert is already-processed, not an error.
func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.OrderRecord) (domain.InsertOutcome, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, session_id, customer_id, payment_type, reference_id,
			amount_total, currency, livemode, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING`,
		order.ID,
		order.SessionID,
		order.CustomerID,
		order.PaymentType,
		order.ReferenceID,
		order.AmountTotal,
		order.Currency,
		order.Livemode,
		order.CreatedAt,
	)
	if res.Error != nil {
		return domain.OutcomeAlreadyExists, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.OutcomeAlreadyExists, nil
	}
	return domain.OutcomeInserted, nil
}

func (r *repo) FindOrderBySession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.OrderRecord, error) {
	var item domain.OrderRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, session_id, customer_id, payment_type, reference_id,
			amount_total, currency, livemode, created_at
		 FROM orders
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
