package domain

import (
	"context"

	"github.com/worktugal/worktugal/pkg/db/pagination"
)

// SubmitRequest carries the raw questionnaire fields as received over HTTP.
// String fields are parsed and validated by the service before evaluation.
type SubmitRequest struct {
	Email            string `json:"email"`
	WorkType         string `json:"work_type"`
	MonthsInPortugal int    `json:"months_in_portugal"`
	ResidencyStatus  string `json:"residency_status"`
	HasNIF           string `json:"has_nif"`
	HasActivity      string `json:"has_registered_activity"`
	HasVATNumber     string `json:"has_vat_number"`
	HasSocialSec     string `json:"has_social_security_number"`
	HasFiscalRep     string `json:"has_fiscal_representative"`
	IncomeBracket    string `json:"estimated_annual_income"`
	Urgent           bool   `json:"urgent"`
	Phone            string `json:"phone"`
	Notes            string `json:"notes"`
}

// SubmitResponse echoes the evaluation alongside the persisted lead id.
type SubmitResponse struct {
	ID             string           `json:"id"`
	SequenceNumber int64            `json:"sequence_number"`
	CriticalCount  int              `json:"critical_count"`
	WarningCount   int              `json:"warning_count"`
	CompliantCount int              `json:"compliant_count"`
	Report         ComplianceReport `json:"report"`
	LeadScore      int              `json:"lead_score"`
}

type ListRequest struct {
	pagination.Pagination
	Email string `form:"email"`
}

type ListResponse struct {
	pagination.PageInfo
	Checkups []CheckupRecord `json:"checkups"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}
