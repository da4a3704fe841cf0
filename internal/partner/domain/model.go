package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	StatusPendingPayment   = "pending_payment"
	StatusPaymentCompleted = "payment_completed"
)

// PartnerSubmission is a business applying for a paid directory listing.
// Payment confirmation arrives through the webhook reconciler and records
// the order as a back-reference.
type PartnerSubmission struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	BusinessName string       `gorm:"type:text;not null"`
	Slug         string       `gorm:"type:text;not null;index"`
	Email        string       `gorm:"type:text;not null"`
	Website      string       `gorm:"type:text"`
	Description  string       `gorm:"type:text"`
	Status       string       `gorm:"type:text;not null"`
	OrderID      *snowflake.ID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PartnerSubmission) TableName() string { return "partner_submissions" }

var ErrSubmissionNotFound = errors.New("partner_submission_not_found")

type SubmitRequest struct {
	BusinessName string `json:"business_name"`
	Email        string `json:"email"`
	Website      string `json:"website"`
	Description  string `json:"description"`
}

type SubmitResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, submission *PartnerSubmission) error
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PartnerSubmission, error)
	MarkPaymentCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, orderID snowflake.ID) error
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	ConfirmPayment(ctx context.Context, submissionID string, orderID snowflake.ID, customerID string) error
}

// FieldError mirrors the shape the public form endpoints return on 400.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid partner submission: " + strings.Join(names, ", ")
}
