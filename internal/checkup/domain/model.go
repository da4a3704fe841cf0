package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// WorkType is the declared category of activity in Portugal.
type WorkType string

const (
	WorkTypeFreelance     WorkType = "freelance"
	WorkTypeEmployee      WorkType = "employee"
	WorkTypeRemoteWorker  WorkType = "remote_worker"
	WorkTypeBusinessOwner WorkType = "business_owner"
	WorkTypeRetired       WorkType = "retired"
	WorkTypeOther         WorkType = "other"
)

func ParseWorkType(raw string) (WorkType, bool) {
	switch WorkType(strings.ToLower(strings.TrimSpace(raw))) {
	case WorkTypeFreelance:
		return WorkTypeFreelance, true
	case WorkTypeEmployee:
		return WorkTypeEmployee, true
	case WorkTypeRemoteWorker:
		return WorkTypeRemoteWorker, true
	case WorkTypeBusinessOwner:
		return WorkTypeBusinessOwner, true
	case WorkTypeRetired:
		return WorkTypeRetired, true
	case WorkTypeOther:
		return WorkTypeOther, true
	default:
		return "", false
	}
}

// SelfEmployed reports whether the category implies registered activity,
// VAT and social security obligations.
func (w WorkType) SelfEmployed() bool {
	switch w {
	case WorkTypeFreelance, WorkTypeRemoteWorker, WorkTypeBusinessOwner:
		return true
	default:
		return false
	}
}

// ResidencyStatus is the user's own assessment of their tax residency.
type ResidencyStatus string

const (
	ResidencyTaxResident ResidencyStatus = "tax_resident"
	ResidencyNonResident ResidencyStatus = "non_resident"
	ResidencyUnsure      ResidencyStatus = "unsure"
)

func ParseResidencyStatus(raw string) (ResidencyStatus, bool) {
	switch ResidencyStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ResidencyTaxResident:
		return ResidencyTaxResident, true
	case ResidencyNonResident:
		return ResidencyNonResident, true
	case ResidencyUnsure:
		return ResidencyUnsure, true
	default:
		return "", false
	}
}

// TriState is a yes/no question whose answer may legitimately be unknown.
// The three values must stay distinct through evaluation: unknown is never
// collapsed into no.
type TriState string

const (
	TriYes     TriState = "yes"
	TriNo      TriState = "no"
	TriUnknown TriState = "unknown"
)

func ParseTriState(raw string) (TriState, bool) {
	switch TriState(strings.ToLower(strings.TrimSpace(raw))) {
	case TriYes:
		return TriYes, true
	case TriNo:
		return TriNo, true
	case TriUnknown:
		return TriUnknown, true
	default:
		return "", false
	}
}

// TaxResidencyDayThreshold is the statutory presence threshold (days per
// year) after which a person is presumed tax resident. Inclusive.
const TaxResidencyDayThreshold = 183

// ComplianceAnswer is one questionnaire submission. Immutable once stored;
// a resubmission creates a new row with a higher sequence number and a
// back-reference to the superseded one.
type ComplianceAnswer struct {
	Email            string
	WorkType         WorkType
	MonthsInPortugal int // days of presence in the last 12 months, 0-365
	Residency        ResidencyStatus
	HasNIF           TriState
	HasActivity      TriState
	HasVATNumber     TriState
	HasSocialSec     TriState
	HasFiscalRep     TriState
	IncomeBracket    string
	Urgent           bool
	Phone            string
	Notes            string
}

// Tier is a severity bucket a finding belongs to.
type Tier string

const (
	TierCritical  Tier = "critical"
	TierWarning   Tier = "warning"
	TierCompliant Tier = "compliant"
)

// ComplianceReport is the derived, deterministic output of evaluation.
// Counts are the lengths of the finding lists; order of findings follows
// rule order.
type ComplianceReport struct {
	Critical  []string `json:"critical"`
	Warning   []string `json:"warning"`
	Compliant []string `json:"compliant"`
}

func (r ComplianceReport) CriticalCount() int  { return len(r.Critical) }
func (r ComplianceReport) WarningCount() int   { return len(r.Warning) }
func (r ComplianceReport) CompliantCount() int { return len(r.Compliant) }

// CheckupRecord is the persisted form of an answer plus its report and
// lead score.
type CheckupRecord struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	Email            string       `gorm:"type:text;not null;index"`
	SequenceNumber   int64        `gorm:"not null"`
	PreviousID       *snowflake.ID
	WorkType         string `gorm:"type:text;not null"`
	MonthsInPortugal int    `gorm:"not null"`
	Residency        string `gorm:"type:text;not null"`
	HasNIF           string `gorm:"type:text;not null"`
	HasActivity      string `gorm:"type:text;not null"`
	HasVATNumber     string `gorm:"type:text;not null"`
	HasSocialSec     string `gorm:"type:text;not null"`
	HasFiscalRep     string `gorm:"type:text;not null"`
	IncomeBracket    string `gorm:"type:text;not null"`
	Urgent           bool   `gorm:"not null"`
	Phone            string `gorm:"type:text"`
	Notes            string `gorm:"type:text"`
	CriticalCount    int    `gorm:"not null"`
	WarningCount     int    `gorm:"not null"`
	CompliantCount   int    `gorm:"not null"`
	Findings         []byte `gorm:"type:jsonb"`
	LeadScore        int    `gorm:"not null"`
	CreatedAt        time.Time
}

func (CheckupRecord) TableName() string { return "compliance_checkups" }

var (
	ErrNotFound = errors.New("checkup_not_found")
)

// FieldError describes one invalid or missing answer field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError is returned before any rule runs; the evaluator never
// partially evaluates a malformed answer.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field)
	}
	return "invalid compliance answer: " + strings.Join(parts, ", ")
}
