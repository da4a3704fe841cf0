package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SubscriptionRecord mirrors the provider's current view of one customer's
// subscription. One row per customer; sync overwrites in place.
type SubscriptionRecord struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	CustomerID        string       `gorm:"type:text;not null;uniqueIndex"`
	SubscriptionID    string       `gorm:"type:text;not null"`
	Status            string       `gorm:"type:text;not null"`
	PriceID           string       `gorm:"type:text"`
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (SubscriptionRecord) TableName() string { return "subscription_records" }

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, record *SubscriptionRecord) error
	FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*SubscriptionRecord, error)
}

// Service reconciles local subscription state with the provider.
type Service interface {
	SyncCustomer(ctx context.Context, customerID string) error
}
