package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/config"
	"github.com/worktugal/worktugal/internal/consult/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Rules *config.RulesHolder
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	rules *config.RulesHolder
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("consult.service"),
		genID: p.GenID,
		rules: p.Rules,
		repo:  p.Repo,
	}
}

// ConfirmPayment marks the booking paid and synthesizes the follow-up
// session from the service price table. The session is only created when
// the booking lookup succeeds.
func (s *Service) ConfirmPayment(ctx context.Context, bookingID string) error {
	id, err := snowflake.ParseString(bookingID)
	if err != nil {
		return domain.ErrBookingNotFound
	}

	booking, err := s.repo.FindBooking(ctx, s.db, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return domain.ErrBookingNotFound
	}

	if err := s.repo.UpdateBookingStatus(ctx, s.db, booking.ID, domain.BookingStatusPaymentCompleted); err != nil {
		return err
	}

	rules := s.rules.Current()
	rate, ok := rules.ConsultRateFor(booking.ServiceType)
	if !ok {
		return domain.ErrUnknownServiceType
	}

	fee, payout := domain.SplitFee(rate.TotalCents, rules.PlatformFeePct)
	session := domain.ConsultSession{
		ID:               s.genID.Generate(),
		BookingID:        booking.ID,
		ServiceType:      booking.ServiceType,
		DurationMinutes:  rate.DurationMinutes,
		TotalCents:       rate.TotalCents,
		PlatformFeeCents: fee,
		PayoutCents:      payout,
		Status:           domain.SessionStatusPendingAssignment,
	}
	if err := s.repo.InsertSession(ctx, s.db, &session); err != nil {
		return err
	}

	s.log.Info("consult booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("service_type", booking.ServiceType),
		zap.Int64("total_cents", rate.TotalCents),
		zap.Int64("platform_fee_cents", fee),
		zap.Int64("payout_cents", payout),
	)
	return nil
}
