package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	BookingStatusPendingPayment   = "pending_payment"
	BookingStatusPaymentCompleted = "payment_completed"

	SessionStatusPendingAssignment = "pending_assignment"
)

// ConsultBooking is a consultation request awaiting payment. Payment
// confirmation arrives asynchronously through the webhook reconciler.
type ConsultBooking struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Email       string       `gorm:"type:text;not null"`
	Name        string       `gorm:"type:text"`
	ServiceType string       `gorm:"type:text;not null"`
	Status      string       `gorm:"type:text;not null"`
	Notes       string       `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ConsultBooking) TableName() string { return "consult_bookings" }

// ConsultSession is the scheduling entity synthesized once a booking is
// paid. Amounts are integer cents; the platform fee and accountant payout
// always sum to the total.
type ConsultSession struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	BookingID        snowflake.ID `gorm:"not null;index"`
	ServiceType      string       `gorm:"type:text;not null"`
	DurationMinutes  int          `gorm:"not null"`
	TotalCents       int64        `gorm:"not null"`
	PlatformFeeCents int64        `gorm:"not null"`
	PayoutCents      int64        `gorm:"not null"`
	Status           string       `gorm:"type:text;not null"`
	CreatedAt        time.Time
}

func (ConsultSession) TableName() string { return "consult_sessions" }

// SplitFee divides a total into platform fee and provider payout in integer
// cents. The payout is the remainder so the two always sum to the total.
func SplitFee(totalCents int64, feePct int64) (fee int64, payout int64) {
	fee = totalCents * feePct / 100
	return fee, totalCents - fee
}

var (
	ErrBookingNotFound    = errors.New("booking_not_found")
	ErrUnknownServiceType = errors.New("unknown_service_type")
)

type Repository interface {
	InsertBooking(ctx context.Context, db *gorm.DB, booking *ConsultBooking) error
	FindBooking(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ConsultBooking, error)
	UpdateBookingStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error
	InsertSession(ctx context.Context, db *gorm.DB, session *ConsultSession) error
}

// Service confirms paid bookings and synthesizes their follow-up sessions.
type Service interface {
	ConfirmPayment(ctx context.Context, bookingID string) error
}
