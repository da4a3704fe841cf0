package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// EventType is the normalized checkout lifecycle event emitted by the
// payment provider.
type EventType string

const (
	EventCheckoutCompleted      EventType = "checkout.session.completed"
	EventCheckoutExpired        EventType = "checkout.session.expired"
	EventAsyncPaymentSucceeded  EventType = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed     EventType = "checkout.session.async_payment_failed"
)

// Mode distinguishes one-time checkouts from recurring subscriptions.
// Values mirror the provider's session mode field.
type Mode string

const (
	ModeOneTime   Mode = "payment"
	ModeRecurring Mode = "subscription"
)

// PaymentStatusPaid is the provider's terminal paid marker on a session.
const PaymentStatusPaid = "paid"

// PaymentType is the closed set of business purposes a checkout can carry.
// Dispatch on it must cover every variant; an unlisted value is a bug, not
// a fallthrough.
type PaymentType uint8

const (
	PaymentTypePerk PaymentType = iota
	PaymentTypeConsult
)

// ParsePaymentType maps the metadata tag to a variant. An absent or
// unrecognized tag means a partner perk purchase, the historical default.
func ParsePaymentType(raw string) PaymentType {
	if raw == "consult" {
		return PaymentTypeConsult
	}
	return PaymentTypePerk
}

func (p PaymentType) String() string {
	switch p {
	case PaymentTypeConsult:
		return "consult"
	case PaymentTypePerk:
		return "perk"
	default:
		return "unknown"
	}
}

// CheckoutSession is the parsed session object carried inside a checkout
// event. Metadata written at session creation rides back unchanged.
type CheckoutSession struct {
	SessionID     string
	Mode          Mode
	PaymentStatus string
	CustomerID    string
	AmountTotal   int64
	Currency      string
	PaymentType   PaymentType
	ReferenceID   string
	ServiceType   string
	Metadata      map[string]string
}

// CheckoutEvent is one verified provider delivery.
type CheckoutEvent struct {
	EventID    string
	Type       EventType
	Livemode   bool
	OccurredAt time.Time
	Session    CheckoutSession
	RawPayload []byte
}

// OrderRecord is the financial record of one completed one-time checkout.
// SessionID is unique; the constraint is the idempotency boundary for
// duplicate webhook deliveries.
type OrderRecord struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	SessionID   string       `gorm:"type:text;not null;uniqueIndex"`
	CustomerID  string       `gorm:"type:text"`
	PaymentType string       `gorm:"type:text;not null"`
	ReferenceID string       `gorm:"type:text"`
	AmountTotal int64        `gorm:"not null"`
	Currency    string       `gorm:"type:text;not null"`
	Livemode    bool         `gorm:"not null"`
	CreatedAt   time.Time
}

func (OrderRecord) TableName() string { return "orders" }

// InsertOutcome reports whether an idempotent insert created the row or
// found it already present. Both are success.
type InsertOutcome uint8

const (
	OutcomeInserted InsertOutcome = iota
	OutcomeAlreadyExists
)

var (
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrInvalidEvent       = errors.New("invalid_event")
	ErrEventIgnored       = errors.New("event_ignored")
	ErrUnknownPaymentType = errors.New("unknown_payment_type")
	ErrMissingFields      = errors.New("missing_fields")
	ErrSessionNotPaid     = errors.New("session_not_paid")
)
