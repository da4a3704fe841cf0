package reconciler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/config"
	consultdomain "github.com/worktugal/worktugal/internal/consult/domain"
	consultrepo "github.com/worktugal/worktugal/internal/consult/repository"
	consultservice "github.com/worktugal/worktugal/internal/consult/service"
	"github.com/worktugal/worktugal/internal/notify"
	partnerdomain "github.com/worktugal/worktugal/internal/partner/domain"
	partnerrepo "github.com/worktugal/worktugal/internal/partner/repository"
	partnerservice "github.com/worktugal/worktugal/internal/partner/service"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	"github.com/worktugal/worktugal/internal/payment/reconciler"
	paymentrepo "github.com/worktugal/worktugal/internal/payment/repository"
	"github.com/worktugal/worktugal/internal/payment/stripe"
	subscriptionrepo "github.com/worktugal/worktugal/internal/subscription/repository"
	subscriptionservice "github.com/worktugal/worktugal/internal/subscription/service"
	userdomain "github.com/worktugal/worktugal/internal/user/domain"
	userrepo "github.com/worktugal/worktugal/internal/user/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

type fakeProviderClient struct {
	subscriptions []paymentdomain.ProviderSubscription
	listCalls     int
}

func (f *fakeProviderClient) CreateCheckoutSession(ctx context.Context, params paymentdomain.CheckoutParams) (paymentdomain.ProviderSession, error) {
	return paymentdomain.ProviderSession{}, errors.New("not implemented")
}

func (f *fakeProviderClient) RetrieveCheckoutSession(ctx context.Context, sessionID string) (paymentdomain.ProviderSession, error) {
	return paymentdomain.ProviderSession{}, errors.New("not implemented")
}

func (f *fakeProviderClient) ListSubscriptions(ctx context.Context, customerID string) ([]paymentdomain.ProviderSubscription, error) {
	f.listCalls++
	return f.subscriptions, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			session_id TEXT NOT NULL,
			customer_id TEXT,
			payment_type TEXT NOT NULL,
			reference_id TEXT,
			amount_total BIGINT NOT NULL,
			currency TEXT NOT NULL,
			livemode BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_orders_session_id ON orders(session_id)`,
		`CREATE TABLE consult_bookings (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT,
			service_type TEXT NOT NULL,
			status TEXT NOT NULL,
			notes TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE consult_sessions (
			id BIGINT PRIMARY KEY,
			booking_id BIGINT NOT NULL,
			service_type TEXT NOT NULL,
			duration_minutes INT NOT NULL,
			total_cents BIGINT NOT NULL,
			platform_fee_cents BIGINT NOT NULL,
			payout_cents BIGINT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE partner_submissions (
			id BIGINT PRIMARY KEY,
			business_name TEXT NOT NULL,
			slug TEXT NOT NULL,
			email TEXT NOT NULL,
			website TEXT,
			description TEXT,
			status TEXT NOT NULL,
			order_id BIGINT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			stripe_customer_id TEXT,
			role TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE subscription_records (
			id BIGINT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			subscription_id TEXT NOT NULL,
			status TEXT NOT NULL,
			price_id TEXT,
			current_period_end DATETIME,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_subscription_records_customer_id ON subscription_records(customer_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	client   *fakeProviderClient
	rec      paymentdomain.Reconciler
	consults consultdomain.Repository
	partners partnerdomain.Repository
	users    userdomain.Repository
}

func newFixture(t *testing.T, nodeID int64) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	log := zap.NewNop()
	forwarder := notify.NewForwarder(notify.Params{Cfg: config.Config{}, Log: log})
	rules := config.NewStaticRulesHolder(config.DefaultRulesConfig())
	client := &fakeProviderClient{}

	consultRepo := consultrepo.Provide()
	consultSvc := consultservice.New(consultservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Rules: rules,
		Repo:  consultRepo,
	})

	userRepo := userrepo.Provide()
	partnerRepo := partnerrepo.Provide()
	partnerSvc := partnerservice.New(partnerservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Repo:      partnerRepo,
		Users:     userRepo,
		Forwarder: forwarder,
	})

	subscriptionSvc := subscriptionservice.New(subscriptionservice.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   subscriptionrepo.Provide(),
		Client: client,
	})

	rec := reconciler.New(reconciler.Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Verifier:      stripe.NewWebhook(testSecret),
		Repo:          paymentrepo.Provide(),
		Consults:      consultSvc,
		Partners:      partnerSvc,
		Subscriptions: subscriptionSvc,
		Forwarder:     forwarder,
	})

	return &fixture{
		db:       db,
		node:     node,
		client:   client,
		rec:      rec,
		consults: consultRepo,
		partners: partnerRepo,
		users:    userRepo,
	}
}

func signPayload(secret string, payload []byte) string {
	timestamp := time.Now().Unix()
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedPayload(t *testing.T, sessionID string, metadata map[string]string, mode string, customer string) []byte {
	t.Helper()
	raw := map[string]any{
		"id":       "evt_" + sessionID,
		"type":     "checkout.session.completed",
		"created":  time.Now().Unix(),
		"livemode": false,
		"data": map[string]any{
			"object": map[string]any{
				"id":             sessionID,
				"mode":           mode,
				"payment_status": "paid",
				"customer":       customer,
				"amount_total":   5900,
				"currency":       "eur",
				"metadata":       metadata,
			},
		},
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	if err := db.Table(table).Count(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func TestReconcileConsultPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)

	booking := consultdomain.ConsultBooking{
		ID:          f.node.Generate(),
		Email:       "carla@example.com",
		ServiceType: "triage",
		Status:      consultdomain.BookingStatusPendingPayment,
	}
	if err := f.consults.InsertBooking(ctx, f.db, &booking); err != nil {
		t.Fatalf("insert booking: %v", err)
	}

	payload := checkoutCompletedPayload(t, "cs_consult", map[string]string{
		"payment_type": "consult",
		"reference_id": booking.ID.String(),
		"service_type": "triage",
	}, "payment", "cus_1")

	if err := f.rec.Reconcile(ctx, payload, signPayload(testSecret, payload)); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	updated, err := f.consults.FindBooking(ctx, f.db, booking.ID)
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if updated.Status != consultdomain.BookingStatusPaymentCompleted {
		t.Fatalf("booking status not updated: %s", updated.Status)
	}

	var session consultdomain.ConsultSession
	if err := f.db.Table("consult_sessions").Where("booking_id = ?", booking.ID).First(&session).Error; err != nil {
		t.Fatalf("load consult session: %v", err)
	}
	if session.TotalCents != 5900 || session.PlatformFeeCents != 1770 || session.PayoutCents != 4130 {
		t.Fatalf("wrong fee split: total=%d fee=%d payout=%d",
			session.TotalCents, session.PlatformFeeCents, session.PayoutCents)
	}
	if session.Status != consultdomain.SessionStatusPendingAssignment {
		t.Fatalf("session status: %s", session.Status)
	}
	if got := countRows(t, f.db, "orders"); got != 1 {
		t.Fatalf("expected 1 order, got %d", got)
	}
}

func TestReconcileDuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 21)

	booking := consultdomain.ConsultBooking{
		ID:          f.node.Generate(),
		Email:       "diogo@example.com",
		ServiceType: "triage",
		Status:      consultdomain.BookingStatusPendingPayment,
	}
	if err := f.consults.InsertBooking(ctx, f.db, &booking); err != nil {
		t.Fatalf("insert booking: %v", err)
	}

	payload := checkoutCompletedPayload(t, "cs_dup", map[string]string{
		"payment_type": "consult",
		"reference_id": booking.ID.String(),
	}, "payment", "cus_2")
	header := signPayload(testSecret, payload)

	for i := 0; i < 3; i++ {
		if err := f.rec.Reconcile(ctx, payload, header); err != nil {
			t.Fatalf("reconcile %d: %v", i+1, err)
		}
	}

	if got := countRows(t, f.db, "orders"); got != 1 {
		t.Fatalf("duplicate delivery must record exactly 1 order, got %d", got)
	}
	if got := countRows(t, f.db, "consult_sessions"); got != 1 {
		t.Fatalf("duplicate delivery must not synthesize a second session, got %d", got)
	}

	var session consultdomain.ConsultSession
	if err := f.db.Table("consult_sessions").Where("booking_id = ?", booking.ID).First(&session).Error; err != nil {
		t.Fatalf("load consult session: %v", err)
	}
	if session.PlatformFeeCents != 1770 || session.PayoutCents != 4130 {
		t.Fatalf("payout must not change across redeliveries: fee=%d payout=%d",
			session.PlatformFeeCents, session.PayoutCents)
	}
}

func TestReconcileInvalidSignature(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 22)

	payload := checkoutCompletedPayload(t, "cs_bad", map[string]string{
		"payment_type": "consult",
		"reference_id": "1",
	}, "payment", "cus_3")

	err := f.rec.Reconcile(ctx, payload, signPayload("whsec_wrong", payload))
	if !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}

	if got := countRows(t, f.db, "orders"); got != 0 {
		t.Fatalf("invalid signature must not mutate, found %d orders", got)
	}
	if got := countRows(t, f.db, "consult_sessions"); got != 0 {
		t.Fatalf("invalid signature must not mutate, found %d sessions", got)
	}
}

func TestReconcilePerkPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 23)

	account := userdomain.User{
		ID:               f.node.Generate(),
		Email:            "elsa@example.com",
		StripeCustomerID: "cus_perk",
		Role:             userdomain.RoleUser,
	}
	if err := f.users.Insert(ctx, f.db, &account); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	submission := partnerdomain.PartnerSubmission{
		ID:           f.node.Generate(),
		BusinessName: "Elsa Consulting",
		Slug:         "elsa-consulting",
		Email:        account.Email,
		Status:       partnerdomain.StatusPendingPayment,
	}
	if err := f.partners.Insert(ctx, f.db, &submission); err != nil {
		t.Fatalf("insert submission: %v", err)
	}

	payload := checkoutCompletedPayload(t, "cs_perk", map[string]string{
		"payment_type": "perk",
		"reference_id": submission.ID.String(),
	}, "payment", "cus_perk")

	if err := f.rec.Reconcile(ctx, payload, signPayload(testSecret, payload)); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	updated, err := f.partners.Find(ctx, f.db, submission.ID)
	if err != nil {
		t.Fatalf("find submission: %v", err)
	}
	if updated.Status != partnerdomain.StatusPaymentCompleted {
		t.Fatalf("submission status: %s", updated.Status)
	}
	if updated.OrderID == nil {
		t.Fatalf("submission must reference the order")
	}

	promoted, err := f.users.FindByCustomerID(ctx, f.db, "cus_perk")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if promoted.Role != userdomain.RolePartner {
		t.Fatalf("user role not promoted: %s", promoted.Role)
	}
}

func TestReconcileRecurringSyncsSubscription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 24)

	f.client.subscriptions = []paymentdomain.ProviderSubscription{{
		ID:               "sub_1",
		Status:           "active",
		Customer:         "cus_rec",
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour).Unix(),
	}}

	payload := checkoutCompletedPayload(t, "cs_rec", nil, "subscription", "cus_rec")
	header := signPayload(testSecret, payload)

	if err := f.rec.Reconcile(ctx, payload, header); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if err := f.rec.Reconcile(ctx, payload, header); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	if got := countRows(t, f.db, "subscription_records"); got != 1 {
		t.Fatalf("subscription sync must upsert a single row per customer, got %d", got)
	}
	if f.client.listCalls != 2 {
		t.Fatalf("each delivery must sync against the provider, got %d calls", f.client.listCalls)
	}

	var record struct {
		SubscriptionID string
		Status         string
	}
	if err := f.db.Table("subscription_records").
		Select("subscription_id, status").
		Where("customer_id = ?", "cus_rec").
		Scan(&record).Error; err != nil {
		t.Fatalf("load subscription record: %v", err)
	}
	if record.SubscriptionID != "sub_1" || record.Status != "active" {
		t.Fatalf("unexpected record: %+v", record)
	}
}
