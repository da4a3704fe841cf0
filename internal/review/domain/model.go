package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPaid      = "paid"
	StatusSubmitted = "submitted"
	StatusCompleted = "completed"
)

// PaidReview is a purchased tax review. SessionID is unique: verifying the
// same checkout session twice returns the same row.
type PaidReview struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	SessionID   string         `gorm:"type:text;not null;uniqueIndex"`
	UserID      string         `gorm:"type:text;not null"`
	Email       string         `gorm:"type:text"`
	Status      string         `gorm:"type:text;not null"`
	AmountTotal int64          `gorm:"not null"`
	Currency    string         `gorm:"type:text"`
	Answers     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PaidReview) TableName() string { return "paid_reviews" }

var (
	ErrNotFound  = errors.New("review_not_found")
	ErrForbidden = errors.New("review_forbidden")
)

type VerifyRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type SubmitRequest struct {
	ReviewID string         `json:"review_id"`
	UserID   string         `json:"user_id"`
	Answers  map[string]any `json:"answers"`
}

type NotifyRequest struct {
	ReviewID string `json:"review_id"`
	UserID   string `json:"user_id"`
}

type ReviewResponse struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	Status      string `json:"status"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, review *PaidReview) error
	FindBySession(ctx context.Context, db *gorm.DB, sessionID string) (*PaidReview, error)
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaidReview, error)
	UpdateSubmission(ctx context.Context, db *gorm.DB, id snowflake.ID, answers datatypes.JSON, status string) error
}

type Service interface {
	VerifySession(ctx context.Context, req VerifyRequest) (ReviewResponse, error)
	Submit(ctx context.Context, req SubmitRequest) (ReviewResponse, error)
	NotifyStatusChange(ctx context.Context, req NotifyRequest) error
}
