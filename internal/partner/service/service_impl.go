package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/worktugal/worktugal/internal/notify"
	"github.com/worktugal/worktugal/internal/partner/domain"
	userdomain "github.com/worktugal/worktugal/internal/user/domain"
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
	Users     userdomain.Repository
	Forwarder *notify.Forwarder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	users     userdomain.Repository
	forwarder *notify.Forwarder
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("partner.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		users:     p.Users,
		forwarder: p.Forwarder,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error) {
	var fields []domain.FieldError
	name := strings.TrimSpace(req.BusinessName)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		fields = append(fields, domain.FieldError{Field: "business_name", Code: "required", Message: "business_name is required"})
	}
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, domain.FieldError{Field: "email", Code: "required", Message: "a valid email is required"})
	}
	if len(fields) > 0 {
		return domain.SubmitResponse{}, &domain.ValidationError{Fields: fields}
	}

	submission := domain.PartnerSubmission{
		ID:           s.genID.Generate(),
		BusinessName: name,
		Slug:         slug.Make(name),
		Email:        email,
		Website:      strings.TrimSpace(req.Website),
		Description:  strings.TrimSpace(req.Description),
		Status:       domain.StatusPendingPayment,
	}
	if err := s.repo.Insert(ctx, s.db, &submission); err != nil {
		return domain.SubmitResponse{}, err
	}

	s.forwarder.ForwardLogged(ctx, notify.WorkflowLead, map[string]any{
		"type":          "partner_submission",
		"submission_id": submission.ID.String(),
		"business_name": submission.BusinessName,
		"slug":          submission.Slug,
		"email":         submission.Email,
	})

	return domain.SubmitResponse{
		ID:   submission.ID.String(),
		Slug: submission.Slug,
	}, nil
}

// ConfirmPayment records the paid order against the submission, then
// attempts a role promotion for the purchasing user. The promotion is
// best-effort: the financial reconciliation already succeeded, so a miss
// is logged and never surfaced.
func (s *Service) ConfirmPayment(ctx context.Context, submissionID string, orderID snowflake.ID, customerID string) error {
	id, err := snowflake.ParseString(submissionID)
	if err != nil {
		return domain.ErrSubmissionNotFound
	}

	submission, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return err
	}
	if submission == nil {
		return domain.ErrSubmissionNotFound
	}

	if err := s.repo.MarkPaymentCompleted(ctx, s.db, submission.ID, orderID); err != nil {
		return err
	}

	s.promotePartner(ctx, customerID)
	return nil
}

func (s *Service) promotePartner(ctx context.Context, customerID string) {
	if strings.TrimSpace(customerID) == "" {
		return
	}
	account, err := s.users.FindByCustomerID(ctx, s.db, customerID)
	if err != nil {
		s.log.Warn("partner role lookup failed", zap.String("customer_id", customerID), zap.Error(err))
		return
	}
	if account == nil {
		s.log.Warn("no user for customer, skipping role promotion", zap.String("customer_id", customerID))
		return
	}
	if err := s.users.UpdateRole(ctx, s.db, account.ID, userdomain.RolePartner); err != nil {
		s.log.Warn("partner role promotion failed",
			zap.String("user_id", account.ID.String()),
			zap.Error(err),
		)
	}
}
