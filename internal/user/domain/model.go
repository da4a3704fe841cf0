package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	RoleUser    = "user"
	RolePartner = "partner"
)

// User is the minimal account record. StripeCustomerID links a provider
// customer back to an account for role promotion after a perk purchase.
type User struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	Email            string       `gorm:"type:text;not null;index"`
	StripeCustomerID string       `gorm:"type:text;index"`
	Role             string       `gorm:"type:text;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (User) TableName() string { return "users" }

var ErrNotFound = errors.New("user_not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*User, error)
	UpdateRole(ctx context.Context, db *gorm.DB, id snowflake.ID, role string) error
}
