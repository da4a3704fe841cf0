package domain

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// ProviderSession is the session object returned by the provider's REST API,
// reduced to the fields the application reads.
type ProviderSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Mode          string            `json:"mode"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Customer      string            `json:"customer"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Livemode      bool              `json:"livemode"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

// ProviderSubscription is one entry of a customer's subscription list.
type ProviderSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Customer          string `json:"customer"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	PriceID           string `json:"-"`
}

// CheckoutParams describes a session to create on the provider.
type CheckoutParams struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	Mode       Mode
	Metadata   map[string]string
}

// ProviderClient is the server-side surface of the payment provider's API.
type ProviderClient interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (ProviderSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (ProviderSession, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]ProviderSubscription, error)
}

// Verifier authenticates and decodes raw webhook deliveries.
type Verifier interface {
	Verify(payload []byte, sigHeader string) error
	Parse(payload []byte) (*CheckoutEvent, error)
}

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *OrderRecord) (InsertOutcome, error)
	FindOrderBySession(ctx context.Context, db *gorm.DB, sessionID string) (*OrderRecord, error)
}

type CreateCheckoutRequest struct {
	PriceID    string `json:"price_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type CreateCheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, req CreateCheckoutRequest) (CreateCheckoutResponse, error)
}

// Reconciler applies one verified webhook delivery to local state. Only a
// signature failure is returned as an error; every downstream failure is
// logged and swallowed so the provider does not redeliver an authentic
// event.
type Reconciler interface {
	Reconcile(ctx context.Context, payload []byte, sigHeader string) error
}

// FieldError names one missing or malformed request field.
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
	return "invalid checkout request: " + strings.Join(names, ", ")
}
