package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	"github.com/worktugal/worktugal/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Client paymentdomain.ProviderClient
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	client paymentdomain.ProviderClient
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("subscription.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		client: p.Client,
	}
}

// SyncCustomer pulls the provider's subscription list for one customer and
// overwrites the local row. The provider is the source of truth; local
// state is a cache keyed by customer id.
func (s *Service) SyncCustomer(ctx context.Context, customerID string) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil
	}

	subscriptions, err := s.client.ListSubscriptions(ctx, customerID)
	if err != nil {
		return err
	}
	if len(subscriptions) == 0 {
		s.log.Debug("no subscriptions for customer", zap.String("customer_id", customerID))
		return nil
	}

	current := pickCurrent(subscriptions)
	now := time.Now().UTC()
	record := domain.SubscriptionRecord{
		ID:                s.genID.Generate(),
		CustomerID:        customerID,
		SubscriptionID:    current.ID,
		Status:            current.Status,
		PriceID:           current.PriceID,
		CurrentPeriodEnd:  time.Unix(current.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: current.CancelAtPeriodEnd,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return s.repo.Upsert(ctx, s.db, &record)
}

// pickCurrent prefers a live subscription over a lapsed one when the
// provider returns several.
func pickCurrent(subscriptions []paymentdomain.ProviderSubscription) paymentdomain.ProviderSubscription {
	for _, sub := range subscriptions {
		switch sub.Status {
		case "active", "trialing", "past_due":
			return sub
		}
	}
	return subscriptions[0]
}
