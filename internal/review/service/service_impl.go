package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/notify"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	"github.com/worktugal/worktugal/internal/review/domain"
	"github.com/worktugal/worktugal/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Client    paymentdomain.ProviderClient
	Forwarder *notify.Forwarder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	client    paymentdomain.ProviderClient
	forwarder *notify.Forwarder
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("review.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		client:    p.Client,
		forwarder: p.Forwarder,
	}
}

// VerifySession is idempotent by session id: a second call returns the row
// the first one created without touching the provider again.
func (s *Service) VerifySession(ctx context.Context, req domain.VerifyRequest) (domain.ReviewResponse, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return domain.ReviewResponse{}, paymentdomain.ErrMissingFields
	}

	existing, err := s.repo.FindBySession(ctx, s.db, sessionID)
	if err != nil {
		return domain.ReviewResponse{}, err
	}
	if existing != nil {
		return toResponse(existing), nil
	}

	session, err := s.client.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		return domain.ReviewResponse{}, err
	}
	if session.PaymentStatus != paymentdomain.PaymentStatusPaid {
		return domain.ReviewResponse{}, paymentdomain.ErrSessionNotPaid
	}

	review := domain.PaidReview{
		ID:          s.genID.Generate(),
		SessionID:   sessionID,
		UserID:      strings.TrimSpace(req.UserID),
		Email:       session.CustomerEmail,
		Status:      domain.StatusPaid,
		AmountTotal: session.AmountTotal,
		Currency:    session.Currency,
	}
	if err := s.repo.Insert(ctx, s.db, &review); err != nil {
		// Lost the race against a concurrent verify; the winner's row is
		// the answer.
		if db.IsDuplicateKeyErr(err) {
			winner, findErr := s.repo.FindBySession(ctx, s.db, sessionID)
			if findErr != nil {
				return domain.ReviewResponse{}, findErr
			}
			if winner != nil {
				return toResponse(winner), nil
			}
		}
		return domain.ReviewResponse{}, err
	}
	return toResponse(&review), nil
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.ReviewResponse, error) {
	review, err := s.authorize(ctx, req.ReviewID, req.UserID)
	if err != nil {
		return domain.ReviewResponse{}, err
	}

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return domain.ReviewResponse{}, err
	}
	if err := s.repo.UpdateSubmission(ctx, s.db, review.ID, answers, domain.StatusSubmitted); err != nil {
		return domain.ReviewResponse{}, err
	}
	review.Status = domain.StatusSubmitted

	s.forwarder.ForwardLogged(ctx, notify.WorkflowReview, map[string]any{
		"review_id":  review.ID.String(),
		"session_id": review.SessionID,
		"email":      review.Email,
		"status":     review.Status,
	})
	return toResponse(review), nil
}

func (s *Service) NotifyStatusChange(ctx context.Context, req domain.NotifyRequest) error {
	review, err := s.authorize(ctx, req.ReviewID, req.UserID)
	if err != nil {
		return err
	}

	s.forwarder.ForwardLogged(ctx, notify.WorkflowReview, map[string]any{
		"review_id":  review.ID.String(),
		"session_id": review.SessionID,
		"email":      review.Email,
		"status":     review.Status,
	})
	return nil
}

// authorize loads the review and checks the caller owns it.
func (s *Service) authorize(ctx context.Context, reviewID string, userID string) (*domain.PaidReview, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(reviewID))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	review, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, domain.ErrNotFound
	}
	if review.UserID != strings.TrimSpace(userID) {
		return nil, domain.ErrForbidden
	}
	return review, nil
}

func toResponse(review *domain.PaidReview) domain.ReviewResponse {
	return domain.ReviewResponse{
		ID:          review.ID.String(),
		SessionID:   review.SessionID,
		Status:      review.Status,
		AmountTotal: review.AmountTotal,
		Currency:    review.Currency,
	}
}
