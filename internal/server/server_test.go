package server_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkuprepo "github.com/worktugal/worktugal/internal/checkup/repository"
	checkupservice "github.com/worktugal/worktugal/internal/checkup/service"
	"github.com/worktugal/worktugal/internal/config"
	consultrepo "github.com/worktugal/worktugal/internal/consult/repository"
	consultservice "github.com/worktugal/worktugal/internal/consult/service"
	leadrepo "github.com/worktugal/worktugal/internal/lead/repository"
	leadservice "github.com/worktugal/worktugal/internal/lead/service"
	"github.com/worktugal/worktugal/internal/notify"
	"github.com/worktugal/worktugal/internal/observability"
	partnerrepo "github.com/worktugal/worktugal/internal/partner/repository"
	partnerservice "github.com/worktugal/worktugal/internal/partner/service"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	paymentrepo "github.com/worktugal/worktugal/internal/payment/repository"
	paymentreconciler "github.com/worktugal/worktugal/internal/payment/reconciler"
	paymentservice "github.com/worktugal/worktugal/internal/payment/service"
	"github.com/worktugal/worktugal/internal/payment/stripe"
	reviewrepo "github.com/worktugal/worktugal/internal/review/repository"
	reviewservice "github.com/worktugal/worktugal/internal/review/service"
	"github.com/worktugal/worktugal/internal/server"
	subscriptionrepo "github.com/worktugal/worktugal/internal/subscription/repository"
	subscriptionservice "github.com/worktugal/worktugal/internal/subscription/service"
	userrepo "github.com/worktugal/worktugal/internal/user/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_server_test"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProviderClient struct{}

func (stubProviderClient) CreateCheckoutSession(ctx context.Context, params paymentdomain.CheckoutParams) (paymentdomain.ProviderSession, error) {
	return paymentdomain.ProviderSession{
		ID:  "cs_stub",
		URL: "https://checkout.example.com/cs_stub",
	}, nil
}

func (stubProviderClient) RetrieveCheckoutSession(ctx context.Context, sessionID string) (paymentdomain.ProviderSession, error) {
	return paymentdomain.ProviderSession{}, errors.New("unknown session")
}

func (stubProviderClient) ListSubscriptions(ctx context.Context, customerID string) ([]paymentdomain.ProviderSubscription, error) {
	return nil, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE compliance_checkups (
			id BIGINT PRIMARY KEY, email TEXT NOT NULL, sequence_number BIGINT NOT NULL,
			previous_id BIGINT, work_type TEXT NOT NULL, months_in_portugal INT NOT NULL,
			residency TEXT NOT NULL, has_nif TEXT NOT NULL, has_activity TEXT NOT NULL,
			has_vat_number TEXT NOT NULL, has_social_sec TEXT NOT NULL, has_fiscal_rep TEXT NOT NULL,
			income_bracket TEXT NOT NULL, urgent BOOLEAN NOT NULL, phone TEXT, notes TEXT,
			critical_count INT NOT NULL, warning_count INT NOT NULL, compliant_count INT NOT NULL,
			findings TEXT, lead_score INT NOT NULL, created_at DATETIME
		)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY, session_id TEXT NOT NULL, customer_id TEXT,
			payment_type TEXT NOT NULL, reference_id TEXT, amount_total BIGINT NOT NULL,
			currency TEXT NOT NULL, livemode BOOLEAN NOT NULL DEFAULT FALSE, created_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_orders_session_id ON orders(session_id)`,
		`CREATE TABLE consult_bookings (
			id BIGINT PRIMARY KEY, email TEXT NOT NULL, name TEXT, service_type TEXT NOT NULL,
			status TEXT NOT NULL, notes TEXT, created_at DATETIME, updated_at DATETIME
		)`,
		`CREATE TABLE consult_sessions (
			id BIGINT PRIMARY KEY, booking_id BIGINT NOT NULL, service_type TEXT NOT NULL,
			duration_minutes INT NOT NULL, total_cents BIGINT NOT NULL,
			platform_fee_cents BIGINT NOT NULL, payout_cents BIGINT NOT NULL,
			status TEXT NOT NULL, created_at DATETIME
		)`,
		`CREATE TABLE partner_submissions (
			id BIGINT PRIMARY KEY, business_name TEXT NOT NULL, slug TEXT NOT NULL,
			email TEXT NOT NULL, website TEXT, description TEXT, status TEXT NOT NULL,
			order_id BIGINT, created_at DATETIME, updated_at DATETIME
		)`,
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY, email TEXT NOT NULL, stripe_customer_id TEXT,
			role TEXT NOT NULL, created_at DATETIME, updated_at DATETIME
		)`,
		`CREATE TABLE subscription_records (
			id BIGINT PRIMARY KEY, customer_id TEXT NOT NULL, subscription_id TEXT NOT NULL,
			status TEXT NOT NULL, price_id TEXT, current_period_end DATETIME,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME, updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_subscription_records_customer_id ON subscription_records(customer_id)`,
		`CREATE TABLE paid_reviews (
			id BIGINT PRIMARY KEY, session_id TEXT NOT NULL, user_id TEXT NOT NULL,
			email TEXT, status TEXT NOT NULL, amount_total BIGINT NOT NULL,
			currency TEXT, answers TEXT, created_at DATETIME, updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_paid_reviews_session_id ON paid_reviews(session_id)`,
		`CREATE TABLE leads (
			id BIGINT PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL,
			message TEXT, source TEXT, created_at DATETIME
		)`,
		`CREATE TABLE contact_requests (
			id BIGINT PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL,
			subject TEXT, message TEXT NOT NULL, created_at DATETIME
		)`,
		`CREATE TABLE accountant_applications (
			id BIGINT PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL, phone TEXT,
			license_number TEXT NOT NULL, years_experience INT NOT NULL,
			message TEXT, created_at DATETIME
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestServer(t *testing.T, cfg config.Config) (*server.Server, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(50)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	log := zap.NewNop()
	forwarder := notify.NewForwarder(notify.Params{Cfg: cfg, Log: log})
	rules := config.NewStaticRulesHolder(config.DefaultRulesConfig())
	client := stubProviderClient{}

	checkupSvc := checkupservice.New(checkupservice.Params{
		DB: db, Log: log, GenID: node, Rules: rules,
		Repo: checkuprepo.Provide(), Forwarder: forwarder,
	})
	consultSvc := consultservice.New(consultservice.Params{
		DB: db, Log: log, GenID: node, Rules: rules, Repo: consultrepo.Provide(),
	})
	partnerSvc := partnerservice.New(partnerservice.Params{
		DB: db, Log: log, GenID: node,
		Repo: partnerrepo.Provide(), Users: userrepo.Provide(), Forwarder: forwarder,
	})
	subscriptionSvc := subscriptionservice.New(subscriptionservice.Params{
		DB: db, Log: log, GenID: node, Repo: subscriptionrepo.Provide(), Client: client,
	})
	reviewSvc := reviewservice.New(reviewservice.Params{
		DB: db, Log: log, GenID: node,
		Repo: reviewrepo.Provide(), Client: client, Forwarder: forwarder,
	})
	leadSvc := leadservice.New(leadservice.Params{
		DB: db, Log: log, GenID: node, Repo: leadrepo.Provide(), Forwarder: forwarder,
	})
	checkoutSvc := paymentservice.New(paymentservice.Params{Log: log, Client: client})
	rec := paymentreconciler.New(paymentreconciler.Params{
		DB: db, Log: log, GenID: node,
		Verifier: stripe.NewWebhook(testWebhookSecret),
		Repo:     paymentrepo.Provide(),
		Consults: consultSvc, Partners: partnerSvc, Subscriptions: subscriptionSvc,
		Forwarder: forwarder,
	})

	engine := server.NewEngine(observability.Config{}, nil)
	srv := server.NewServer(server.ServerParams{
		Gin: engine, Cfg: cfg, DB: db, Log: log, GenID: node,
		CheckupSvc: checkupSvc, CheckoutSvc: checkoutSvc, Reconciler: rec,
		ReviewSvc: reviewSvc, LeadSvc: leadSvc, LeadRepo: leadrepo.Provide(),
		PartnerSvc: partnerSvc,
	})
	return srv, db
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func signBody(secret string, payload []byte) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", timestamp, string(payload))))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestTaxCheckupEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	w := doJSON(t, srv, http.MethodPost, "/tax-checkup", map[string]any{
		"email":                      "ana@example.com",
		"work_type":                  "freelance",
		"months_in_portugal":         200,
		"residency_status":           "tax_resident",
		"has_nif":                    "yes",
		"has_registered_activity":    "yes",
		"has_vat_number":             "yes",
		"has_social_security_number": "yes",
		"has_fiscal_representative":  "no",
		"estimated_annual_income":    "15k_30k",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID             string `json:"id"`
		SequenceNumber int64  `json:"sequence_number"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.SequenceNumber != 1 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestTaxCheckupValidationShape(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	w := doJSON(t, srv, http.MethodPost, "/tax-checkup", map[string]any{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Error struct {
			Type   string `json:"type"`
			Errors []struct {
				Field string `json:"field"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Type != "validation_error" || len(resp.Error.Errors) == 0 {
		t.Fatalf("unexpected error shape: %s", w.Body.String())
	}
}

func TestCheckoutMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	w := doJSON(t, srv, http.MethodGet, "/paid-review-checkout", nil, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	w := doJSON(t, srv, http.MethodOptions, "/tax-checkup", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestStripeWebhook(t *testing.T) {
	srv, db := newTestServer(t, config.Config{})

	payload, err := json.Marshal(map[string]any{
		"id":       "evt_http",
		"type":     "checkout.session.completed",
		"created":  time.Now().Unix(),
		"livemode": false,
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_http",
				"mode":           "payment",
				"payment_status": "paid",
				"customer":       "cus_http",
				"amount_total":   5900,
				"currency":       "eur",
				"metadata":       map[string]string{"payment_type": "perk"},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signBody(testWebhookSecret, payload))
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"received":true}` {
		t.Fatalf("body = %s", w.Body.String())
	}

	var orders int64
	if err := db.Table("orders").Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 1 {
		t.Fatalf("expected 1 order, got %d", orders)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	srv, db := newTestServer(t, config.Config{})

	payload := []byte(`{"type":"checkout.session.completed"}`)
	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signBody("whsec_other", payload))
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var orders int64
	if err := db.Table("orders").Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 {
		t.Fatalf("bad signature must not record orders, got %d", orders)
	}
}

func TestStripeWebhookRequiresSignatureHeader(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSubmitLeadContract(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	w := doJSON(t, srv, http.MethodPost, "/submit-lead", map[string]any{
		"name":  "Miguel",
		"email": "miguel@example.com",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var ok struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ok.Success || ok.Data.ID == "" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/submit-lead", map[string]any{"name": ""}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var bad struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &bad); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bad.Error != "validation_error" || len(bad.Details) == 0 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestSubmitLeadRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/submit-lead", bytes.NewReader([]byte(`{"name": `)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "invalid_json" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateCheckout(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})

	w := doJSON(t, srv, http.MethodPost, "/paid-review-checkout", map[string]any{
		"price_id":    "price_1",
		"success_url": "https://worktugal.example/success",
		"cancel_url":  "https://worktugal.example/cancel",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "cs_stub" || resp.URL == "" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/paid-review-checkout", map[string]any{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	w := doJSON(t, srv, http.MethodGet, "/admin/checkups", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("without a configured token the surface is hidden, got %d", w.Code)
	}

	srv, _ = newTestServer(t, config.Config{AdminAPIToken: "secret-token"})
	w = doJSON(t, srv, http.MethodGet, "/admin/checkups", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	w = doJSON(t, srv, http.MethodGet, "/admin/checkups", nil, map[string]string{
		"Authorization": "Bearer secret-token",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
