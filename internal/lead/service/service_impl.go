package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/lead/domain"
	"github.com/worktugal/worktugal/internal/notify"
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
	Forwarder *notify.Forwarder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	forwarder *notify.Forwarder
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("lead.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		forwarder: p.Forwarder,
	}
}

func (s *Service) SubmitLead(ctx context.Context, req domain.SubmitLeadRequest) (domain.SubmitResponse, error) {
	var fields []domain.FieldError
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" {
		fields = append(fields, requiredField("name"))
	}
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, requiredField("email"))
	}
	if len(fields) > 0 {
		return domain.SubmitResponse{}, &domain.ValidationError{Fields: fields}
	}

	lead := domain.Lead{
		ID:      s.genID.Generate(),
		Name:    name,
		Email:   email,
		Message: strings.TrimSpace(req.Message),
		Source:  strings.TrimSpace(req.Source),
	}
	if err := s.repo.InsertLead(ctx, s.db, &lead); err != nil {
		return domain.SubmitResponse{}, err
	}

	s.forwarder.ForwardLogged(ctx, notify.WorkflowLead, map[string]any{
		"lead_id": lead.ID.String(),
		"name":    lead.Name,
		"email":   lead.Email,
		"source":  lead.Source,
	})
	return domain.SubmitResponse{ID: lead.ID.String()}, nil
}

func (s *Service) SubmitContact(ctx context.Context, req domain.SubmitContactRequest) (domain.SubmitResponse, error) {
	var fields []domain.FieldError
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)
	if name == "" {
		fields = append(fields, requiredField("name"))
	}
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, requiredField("email"))
	}
	if message == "" {
		fields = append(fields, requiredField("message"))
	}
	if len(fields) > 0 {
		return domain.SubmitResponse{}, &domain.ValidationError{Fields: fields}
	}

	contact := domain.ContactRequest{
		ID:      s.genID.Generate(),
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(req.Subject),
		Message: message,
	}
	if err := s.repo.InsertContact(ctx, s.db, &contact); err != nil {
		return domain.SubmitResponse{}, err
	}

	s.forwarder.ForwardLogged(ctx, notify.WorkflowContact, map[string]any{
		"contact_id": contact.ID.String(),
		"name":       contact.Name,
		"email":      contact.Email,
		"subject":    contact.Subject,
	})
	return domain.SubmitResponse{ID: contact.ID.String()}, nil
}

func (s *Service) SubmitApplication(ctx context.Context, req domain.SubmitApplicationRequest) (domain.SubmitResponse, error) {
	var fields []domain.FieldError
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	license := strings.TrimSpace(req.LicenseNumber)
	if name == "" {
		fields = append(fields, requiredField("name"))
	}
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, requiredField("email"))
	}
	if license == "" {
		fields = append(fields, requiredField("license_number"))
	}
	if req.YearsExperience < 0 {
		fields = append(fields, domain.FieldError{
			Field:   "years_experience",
			Code:    "invalid",
			Message: "years_experience must not be negative",
		})
	}
	if len(fields) > 0 {
		return domain.SubmitResponse{}, &domain.ValidationError{Fields: fields}
	}

	application := domain.AccountantApplication{
		ID:              s.genID.Generate(),
		Name:            name,
		Email:           email,
		Phone:           strings.TrimSpace(req.Phone),
		LicenseNumber:   license,
		YearsExperience: req.YearsExperience,
		Message:         strings.TrimSpace(req.Message),
	}
	if err := s.repo.InsertApplication(ctx, s.db, &application); err != nil {
		return domain.SubmitResponse{}, err
	}

	s.forwarder.ForwardLogged(ctx, notify.WorkflowAccountant, map[string]any{
		"application_id":   application.ID.String(),
		"name":             application.Name,
		"email":            application.Email,
		"license_number":   application.LicenseNumber,
		"years_experience": application.YearsExperience,
	})
	return domain.SubmitResponse{ID: application.ID.String()}, nil
}

func requiredField(name string) domain.FieldError {
	return domain.FieldError{
		Field:   name,
		Code:    "required",
		Message: name + " is required",
	}
}
