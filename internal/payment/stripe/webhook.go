package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/worktugal/worktugal/internal/payment/domain"
)

// Webhook verifies and decodes signed provider deliveries. The signature
// scheme is the provider's v1 format: `t=<unix>,v1=<hex hmac>` where the
// MAC is HMAC-SHA256 over "<timestamp>.<payload>".
type Webhook struct {
	secret string
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: strings.TrimSpace(secret)}
}

func (w *Webhook) Verify(payload []byte, sigHeader string) error {
	sigHeader = strings.TrimSpace(sigHeader)
	if sigHeader == "" || w.secret == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(w.secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

func (w *Webhook) Parse(payload []byte) (*domain.CheckoutEvent, error) {
	var event wireEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	var eventType domain.EventType
	switch strings.TrimSpace(event.Type) {
	case string(domain.EventCheckoutCompleted):
		eventType = domain.EventCheckoutCompleted
	case string(domain.EventCheckoutExpired):
		eventType = domain.EventCheckoutExpired
	case string(domain.EventAsyncPaymentSucceeded):
		eventType = domain.EventAsyncPaymentSucceeded
	case string(domain.EventAsyncPaymentFailed):
		eventType = domain.EventAsyncPaymentFailed
	default:
		return nil, domain.ErrEventIgnored
	}

	var session wireSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	metadata := session.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return &domain.CheckoutEvent{
		EventID:    event.ID,
		Type:       eventType,
		Livemode:   event.Livemode,
		OccurredAt: occurredAt(event.Created),
		Session: domain.CheckoutSession{
			SessionID:     session.ID,
			Mode:          domain.Mode(strings.TrimSpace(session.Mode)),
			PaymentStatus: strings.TrimSpace(session.PaymentStatus),
			CustomerID:    strings.TrimSpace(session.Customer),
			AmountTotal:   session.AmountTotal,
			Currency:      strings.ToUpper(strings.TrimSpace(session.Currency)),
			PaymentType:   domain.ParsePaymentType(metadata["payment_type"]),
			ReferenceID:   strings.TrimSpace(metadata["reference_id"]),
			ServiceType:   strings.TrimSpace(metadata["service_type"]),
			Metadata:      metadata,
		},
		RawPayload: payload,
	}, nil
}

type wireEvent struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Created  int64         `json:"created"`
	Livemode bool          `json:"livemode"`
	Data     wireEventData `json:"data"`
}

type wireEventData struct {
	Object json.RawMessage `json:"object"`
}

type wireSession struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	PaymentStatus string            `json:"payment_status"`
	Customer      string            `json:"customer"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func occurredAt(created int64) time.Time {
	if created == 0 {
		return time.Now().UTC()
	}
	return time.Unix(created, 0).UTC()
}
