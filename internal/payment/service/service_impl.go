package service

import (
	"context"
	"strings"

	"github.com/worktugal/worktugal/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Client domain.ProviderClient
}

type Service struct {
	log    *zap.Logger
	client domain.ProviderClient
}

func New(p Params) domain.CheckoutService {
	return &Service{
		log:    p.Log.Named("payment.service"),
		client: p.Client,
	}
}

func (s *Service) CreateCheckoutSession(ctx context.Context, req domain.CreateCheckoutRequest) (domain.CreateCheckoutResponse, error) {
	var fields []domain.FieldError
	if strings.TrimSpace(req.PriceID) == "" {
		fields = append(fields, domain.FieldError{Field: "price_id", Code: "required", Message: "price_id is required"})
	}
	if strings.TrimSpace(req.SuccessURL) == "" {
		fields = append(fields, domain.FieldError{Field: "success_url", Code: "required", Message: "success_url is required"})
	}
	if strings.TrimSpace(req.CancelURL) == "" {
		fields = append(fields, domain.FieldError{Field: "cancel_url", Code: "required", Message: "cancel_url is required"})
	}
	if len(fields) > 0 {
		return domain.CreateCheckoutResponse{}, &domain.ValidationError{Fields: fields}
	}

	session, err := s.client.CreateCheckoutSession(ctx, domain.CheckoutParams{
		PriceID:    strings.TrimSpace(req.PriceID),
		SuccessURL: strings.TrimSpace(req.SuccessURL),
		CancelURL:  strings.TrimSpace(req.CancelURL),
		Mode:       domain.ModeOneTime,
		Metadata: map[string]string{
			"purpose": "paid_review",
		},
	})
	if err != nil {
		s.log.Error("create checkout session failed", zap.Error(err))
		return domain.CreateCheckoutResponse{}, err
	}

	return domain.CreateCheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}
