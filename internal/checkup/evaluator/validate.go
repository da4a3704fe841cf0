package evaluator

import (
	"strings"

	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/config"
)

// ParseAnswer validates the raw submission and builds a typed answer. It
// fails before any rule runs; the evaluator never sees a malformed answer.
func ParseAnswer(req checkupdomain.SubmitRequest, cfg config.RulesConfig) (checkupdomain.ComplianceAnswer, error) {
	var fields []checkupdomain.FieldError

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		fields = append(fields, missing("email"))
	} else if !strings.Contains(email, "@") {
		fields = append(fields, invalid("email", "not a valid email address"))
	}

	workType, ok := checkupdomain.ParseWorkType(req.WorkType)
	if strings.TrimSpace(req.WorkType) == "" {
		fields = append(fields, missing("work_type"))
	} else if !ok {
		fields = append(fields, invalid("work_type", "unknown work category"))
	}

	bracket := strings.TrimSpace(req.IncomeBracket)
	if bracket == "" {
		fields = append(fields, missing("estimated_annual_income"))
	} else if !knownBracket(bracket, cfg) {
		fields = append(fields, invalid("estimated_annual_income", "unknown income bracket"))
	}

	if req.MonthsInPortugal < 0 || req.MonthsInPortugal > 365 {
		fields = append(fields, invalid("months_in_portugal", "must be between 0 and 365"))
	}

	residency := checkupdomain.ResidencyUnsure
	if raw := strings.TrimSpace(req.ResidencyStatus); raw != "" {
		parsed, ok := checkupdomain.ParseResidencyStatus(raw)
		if !ok {
			fields = append(fields, invalid("residency_status", "unknown residency status"))
		} else {
			residency = parsed
		}
	}

	hasNIF := parseTriField(req.HasNIF, "has_nif", &fields)
	hasActivity := parseTriField(req.HasActivity, "has_registered_activity", &fields)
	hasVAT := parseTriField(req.HasVATNumber, "has_vat_number", &fields)
	hasSocial := parseTriField(req.HasSocialSec, "has_social_security_number", &fields)
	hasFiscalRep := parseTriField(req.HasFiscalRep, "has_fiscal_representative", &fields)

	if len(fields) > 0 {
		return checkupdomain.ComplianceAnswer{}, &checkupdomain.ValidationError{Fields: fields}
	}

	return checkupdomain.ComplianceAnswer{
		Email:            email,
		WorkType:         workType,
		MonthsInPortugal: req.MonthsInPortugal,
		Residency:        residency,
		HasNIF:           hasNIF,
		HasActivity:      hasActivity,
		HasVATNumber:     hasVAT,
		HasSocialSec:     hasSocial,
		HasFiscalRep:     hasFiscalRep,
		IncomeBracket:    bracket,
		Urgent:           req.Urgent,
		Phone:            strings.TrimSpace(req.Phone),
		Notes:            strings.TrimSpace(req.Notes),
	}, nil
}

// parseTriField maps an empty answer to unknown: an unanswered optional
// question is an unknown, not a no.
func parseTriField(raw, field string, fields *[]checkupdomain.FieldError) checkupdomain.TriState {
	if strings.TrimSpace(raw) == "" {
		return checkupdomain.TriUnknown
	}
	parsed, ok := checkupdomain.ParseTriState(raw)
	if !ok {
		*fields = append(*fields, invalid(field, "must be yes, no or unknown"))
		return checkupdomain.TriUnknown
	}
	return parsed
}

func knownBracket(code string, cfg config.RulesConfig) bool {
	for _, b := range cfg.IncomeBrackets {
		if b.Code == code {
			return true
		}
	}
	return false
}

func missing(field string) checkupdomain.FieldError {
	return checkupdomain.FieldError{Field: field, Code: "required", Message: "field is required"}
}

func invalid(field, message string) checkupdomain.FieldError {
	return checkupdomain.FieldError{Field: field, Code: "invalid", Message: message}
}
