package reconciler

import (
	"context"

	"github.com/bwmarrin/snowflake"
	consultdomain "github.com/worktugal/worktugal/internal/consult/domain"
	"github.com/worktugal/worktugal/internal/notify"
	obsmetrics "github.com/worktugal/worktugal/internal/observability/metrics"
	partnerdomain "github.com/worktugal/worktugal/internal/partner/domain"
	"github.com/worktugal/worktugal/internal/payment/domain"
	subscriptiondomain "github.com/worktugal/worktugal/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Verifier      domain.Verifier
	Repo          domain.Repository
	Consults      consultdomain.Service
	Partners      partnerdomain.Service
	Subscriptions subscriptiondomain.Service
	Forwarder     *notify.Forwarder
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

type Reconciler struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	verifier      domain.Verifier
	repo          domain.Repository
	consults      consultdomain.Service
	partners      partnerdomain.Service
	subscriptions subscriptiondomain.Service
	forwarder     *notify.Forwarder
	obsMetrics    *obsmetrics.Metrics
}

func New(p Params) domain.Reconciler {
	return &Reconciler{
		db:            p.DB,
		log:           p.Log.Named("payment.reconciler"),
		genID:         p.GenID,
		verifier:      p.Verifier,
		repo:          p.Repo,
		consults:      p.Consults,
		partners:      p.Partners,
		subscriptions: p.Subscriptions,
		forwarder:     p.Forwarder,
		obsMetrics:    p.ObsMetrics,
	}
}

// Reconcile applies one webhook delivery. The two failure classes get
// opposite policies: an unverifiable payload is rejected so the provider
// retries, while every failure after verification is logged and swallowed,
// since redelivering an authentic event cannot fix a downstream problem
// and the idempotent insert already absorbs duplicates.
func (r *Reconciler) Reconcile(ctx context.Context, payload []byte, sigHeader string) error {
	if err := r.verifier.Verify(payload, sigHeader); err != nil {
		return domain.ErrInvalidSignature
	}

	event, err := r.verifier.Parse(payload)
	if err != nil {
		r.log.Debug("webhook event skipped", zap.Error(err))
		return nil
	}

	log := r.log.With(
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", event.Session.SessionID),
	)

	if r.obsMetrics != nil {
		r.obsMetrics.RecordPaymentEvent(ctx, string(event.Type), event.Session.PaymentType.String())
	}

	switch {
	case event.Session.Mode == domain.ModeRecurring:
		if err := r.subscriptions.SyncCustomer(ctx, event.Session.CustomerID); err != nil {
			log.Error("subscription sync failed", zap.Error(err))
		}

	case event.Type == domain.EventCheckoutCompleted && event.Session.PaymentStatus == domain.PaymentStatusPaid:
		r.recordAndDispatch(ctx, log, event)
	}

	if event.Type == domain.EventCheckoutCompleted {
		r.forwarder.ForwardLogged(ctx, notify.WorkflowPayment, map[string]any{
			"event_id":     event.EventID,
			"event_type":   string(event.Type),
			"session_id":   event.Session.SessionID,
			"payment_type": event.Session.PaymentType.String(),
			"amount_total": event.Session.AmountTotal,
			"currency":     event.Session.Currency,
			"livemode":     event.Livemode,
			"occurred_at":  event.OccurredAt,
		})
	}

	return nil
}

func (r *Reconciler) recordAndDispatch(ctx context.Context, log *zap.Logger, event *domain.CheckoutEvent) {
	order := domain.OrderRecord{
		ID:          r.genID.Generate(),
		SessionID:   event.Session.SessionID,
		CustomerID:  event.Session.CustomerID,
		PaymentType: event.Session.PaymentType.String(),
		ReferenceID: event.Session.ReferenceID,
		AmountTotal: event.Session.AmountTotal,
		Currency:    event.Session.Currency,
		Livemode:    event.Livemode,
		CreatedAt:   event.OccurredAt,
	}

	outcome, err := r.repo.InsertOrder(ctx, r.db, &order)
	if err != nil {
		log.Error("order insert failed", zap.Error(err))
		return
	}
	if outcome == domain.OutcomeAlreadyExists {
		log.Info("duplicate delivery, order already recorded")
		return
	}
	if r.obsMetrics != nil {
		r.obsMetrics.RecordOrder(ctx, order.PaymentType)
	}

	if event.Session.ReferenceID == "" {
		log.Debug("no entity reference on session, dispatch skipped")
		return
	}

	if err := r.dispatch(ctx, event, order.ID); err != nil {
		log.Error("entity dispatch failed",
			zap.String("payment_type", event.Session.PaymentType.String()),
			zap.String("reference_id", event.Session.ReferenceID),
			zap.Error(err),
		)
	}
}

// dispatch branches exactly once on the payment type. Every variant of the
// closed set is handled; an unlisted value reaches the guard below and is
// reported, never silently absorbed by a default branch.
func (r *Reconciler) dispatch(ctx context.Context, event *domain.CheckoutEvent, orderID snowflake.ID) error {
	switch event.Session.PaymentType {
	case domain.PaymentTypeConsult:
		return r.consults.ConfirmPayment(ctx, event.Session.ReferenceID)
	case domain.PaymentTypePerk:
		return r.partners.ConfirmPayment(ctx, event.Session.ReferenceID, orderID, event.Session.CustomerID)
	default:
		return domain.ErrUnknownPaymentType
	}
}
