package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/checkup/evaluator"
	"github.com/worktugal/worktugal/internal/config"
	"github.com/worktugal/worktugal/internal/notify"
	obsmetrics "github.com/worktugal/worktugal/internal/observability/metrics"
	"github.com/worktugal/worktugal/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Rules      *config.RulesHolder
	Repo       domain.Repository
	Forwarder  *notify.Forwarder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	rules      *config.RulesHolder
	repo       domain.Repository
	forwarder  *notify.Forwarder
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("checkup.service"),
		genID:      p.GenID,
		rules:      p.Rules,
		repo:       p.Repo,
		forwarder:  p.Forwarder,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResponse, error) {
	rules := s.rules.Current()

	answer, err := evaluator.ParseAnswer(req, rules)
	if err != nil {
		return domain.SubmitResponse{}, err
	}

	report := evaluator.Evaluate(answer, rules)
	score := evaluator.LeadScore(answer, rules)

	// Resubmission supersedes, never mutates: a new row with the next
	// sequence number points back at the previous one.
	sequence := int64(1)
	var previousID *snowflake.ID
	prior, err := s.repo.FindLatestByEmail(ctx, s.db, answer.Email)
	if err != nil {
		return domain.SubmitResponse{}, err
	}
	if prior != nil {
		sequence = prior.SequenceNumber + 1
		id := prior.ID
		previousID = &id
	}

	findings, err := json.Marshal(report)
	if err != nil {
		return domain.SubmitResponse{}, err
	}

	record := domain.CheckupRecord{
		ID:               s.genID.Generate(),
		Email:            answer.Email,
		SequenceNumber:   sequence,
		PreviousID:       previousID,
		WorkType:         string(answer.WorkType),
		MonthsInPortugal: answer.MonthsInPortugal,
		Residency:        string(answer.Residency),
		HasNIF:           string(answer.HasNIF),
		HasActivity:      string(answer.HasActivity),
		HasVATNumber:     string(answer.HasVATNumber),
		HasSocialSec:     string(answer.HasSocialSec),
		HasFiscalRep:     string(answer.HasFiscalRep),
		IncomeBracket:    answer.IncomeBracket,
		Urgent:           answer.Urgent,
		Phone:            answer.Phone,
		Notes:            answer.Notes,
		CriticalCount:    report.CriticalCount(),
		WarningCount:     report.WarningCount(),
		CompliantCount:   report.CompliantCount(),
		Findings:         findings,
		LeadScore:        score,
	}
	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return domain.SubmitResponse{}, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCheckup(ctx, record.WorkType, record.CriticalCount)
	}

	s.forwarder.ForwardLogged(ctx, notify.WorkflowCheckup, map[string]any{
		"checkup_id":      record.ID.String(),
		"email":           record.Email,
		"work_type":       record.WorkType,
		"income_bracket":  record.IncomeBracket,
		"critical_count":  record.CriticalCount,
		"warning_count":   record.WarningCount,
		"compliant_count": record.CompliantCount,
		"lead_score":      record.LeadScore,
		"urgent":          record.Urgent,
		"sequence_number": record.SequenceNumber,
	})

	return domain.SubmitResponse{
		ID:             record.ID.String(),
		SequenceNumber: record.SequenceNumber,
		CriticalCount:  record.CriticalCount,
		WarningCount:   record.WarningCount,
		CompliantCount: record.CompliantCount,
		Report:         report,
		LeadScore:      record.LeadScore,
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	limit := req.Clamp(100)

	var afterID int64
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err == nil && cursor.ID != "" {
			afterID, _ = strconv.ParseInt(cursor.ID, 10, 64)
		}
	}

	items, err := s.repo.List(ctx, s.db, req.Email, afterID, limit+1)
	if err != nil {
		return domain.ListResponse{}, err
	}

	resp := domain.ListResponse{Checkups: items}
	if len(items) > limit {
		resp.Checkups = items[:limit]
		last := resp.Checkups[len(resp.Checkups)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: last.ID.String()})
		if err == nil {
			resp.HasMore = true
			resp.NextPageToken = token
		}
	}
	return resp, nil
}
