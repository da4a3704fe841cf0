package evaluator

import (
	"encoding/json"
	"strings"
	"testing"

	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/config"
)

func baseAnswer() checkupdomain.ComplianceAnswer {
	return checkupdomain.ComplianceAnswer{
		Email:            "ana@example.com",
		WorkType:         checkupdomain.WorkTypeFreelance,
		MonthsInPortugal: 100,
		Residency:        checkupdomain.ResidencyTaxResident,
		HasNIF:           checkupdomain.TriYes,
		HasActivity:      checkupdomain.TriYes,
		HasVATNumber:     checkupdomain.TriYes,
		HasSocialSec:     checkupdomain.TriYes,
		HasFiscalRep:     checkupdomain.TriUnknown,
		IncomeBracket:    "under_10k",
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	cfg := config.DefaultRulesConfig()
	answer := baseAnswer()
	answer.HasVATNumber = checkupdomain.TriUnknown
	answer.IncomeBracket = "15k_30k"

	first := Evaluate(answer, cfg)
	second := Evaluate(answer, cfg)

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first report: %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second report: %v", err)
	}
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("evaluation is not deterministic:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestResidencyDayBoundary(t *testing.T) {
	cfg := config.DefaultRulesConfig()

	answer := baseAnswer()
	answer.Residency = checkupdomain.ResidencyNonResident

	answer.MonthsInPortugal = 183
	report := Evaluate(answer, cfg)
	if report.CriticalCount() == 0 {
		t.Fatalf("183 days with non-resident declaration must be critical, got %+v", report)
	}

	answer.MonthsInPortugal = 182
	report = Evaluate(answer, cfg)
	if containsResidencyFinding(report.Critical) || containsResidencyFinding(report.Warning) || containsResidencyFinding(report.Compliant) {
		t.Fatalf("182 days must not trigger any residency finding, got %+v", report)
	}

	answer.MonthsInPortugal = 183
	answer.Residency = checkupdomain.ResidencyUnsure
	report = Evaluate(answer, cfg)
	if !containsResidencyFinding(report.Warning) {
		t.Fatalf("183 days with unsure residency must warn, got %+v", report)
	}

	answer.Residency = checkupdomain.ResidencyTaxResident
	report = Evaluate(answer, cfg)
	if !containsResidencyFinding(report.Compliant) {
		t.Fatalf("183 days with declared residency must be compliant, got %+v", report)
	}
}

func containsResidencyFinding(findings []string) bool {
	for _, f := range findings {
		if strings.Contains(f, "183") {
			return true
		}
	}
	return false
}

func TestUnknownNeverCritical(t *testing.T) {
	cfg := config.DefaultRulesConfig()

	answer := baseAnswer()
	answer.IncomeBracket = "over_60k"
	answer.HasNIF = checkupdomain.TriUnknown
	answer.HasActivity = checkupdomain.TriUnknown
	answer.HasVATNumber = checkupdomain.TriUnknown
	answer.HasSocialSec = checkupdomain.TriUnknown
	answer.HasFiscalRep = checkupdomain.TriUnknown

	report := Evaluate(answer, cfg)
	if report.CriticalCount() != 0 {
		t.Fatalf("unknown answers must never be critical, got criticals: %v", report.Critical)
	}
	if report.WarningCount() == 0 {
		t.Fatalf("unknown answers must produce warnings, got %+v", report)
	}
}

func TestVATBracketOverFlag(t *testing.T) {
	cfg := config.DefaultRulesConfig()

	answer := baseAnswer()
	answer.HasVATNumber = checkupdomain.TriNo

	// Bracket entirely below the cutoff: no VAT obligation.
	answer.IncomeBracket = "under_10k"
	report := Evaluate(answer, cfg)
	if containsVATCritical(report) {
		t.Fatalf("bracket below threshold must not flag VAT, got %+v", report)
	}

	// Bracket whose upper bound reaches the cutoff is flagged.
	answer.IncomeBracket = "15k_30k"
	report = Evaluate(answer, cfg)
	if !containsVATCritical(report) {
		t.Fatalf("bracket crossing threshold must flag VAT, got %+v", report)
	}

	// Open-ended bracket is always flagged.
	answer.IncomeBracket = "over_60k"
	report = Evaluate(answer, cfg)
	if !containsVATCritical(report) {
		t.Fatalf("open-ended bracket must flag VAT, got %+v", report)
	}
}

func containsVATCritical(report checkupdomain.ComplianceReport) bool {
	for _, f := range report.Critical {
		if strings.Contains(f, "VAT") {
			return true
		}
	}
	return false
}

func TestFreelancerScenario(t *testing.T) {
	cfg := config.DefaultRulesConfig()

	req := checkupdomain.SubmitRequest{
		Email:            "bruno@example.com",
		WorkType:         "freelance",
		MonthsInPortugal: 200,
		ResidencyStatus:  "tax_resident",
		HasNIF:           "no",
		HasActivity:      "yes",
		HasVATNumber:     "unknown",
		HasSocialSec:     "yes",
		IncomeBracket:    "15k_30k",
	}
	answer, err := ParseAnswer(req, cfg)
	if err != nil {
		t.Fatalf("parse answer: %v", err)
	}

	report := Evaluate(answer, cfg)
	if report.CriticalCount() < 1 {
		t.Fatalf("missing NIF must be critical, got %+v", report)
	}
	if report.WarningCount() < 1 {
		t.Fatalf("unknown VAT status must warn, got %+v", report)
	}
}

func TestParseAnswerEnumeratesMissingFields(t *testing.T) {
	cfg := config.DefaultRulesConfig()

	_, err := ParseAnswer(checkupdomain.SubmitRequest{}, cfg)
	if err == nil {
		t.Fatalf("empty request must fail validation")
	}

	vErr, ok := err.(*checkupdomain.ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	want := map[string]bool{
		"email":                   false,
		"work_type":               false,
		"estimated_annual_income": false,
	}
	for _, f := range vErr.Fields {
		if _, tracked := want[f.Field]; tracked {
			want[f.Field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("missing field %q not enumerated in %+v", field, vErr.Fields)
		}
	}
}

func TestLeadScoreIndependentOfReport(t *testing.T) {
	cfg := config.DefaultRulesConfig()

	answer := baseAnswer()
	answer.IncomeBracket = "over_60k"
	answer.Urgent = true
	answer.MonthsInPortugal = 200
	answer.Phone = "+351900000000"

	score := LeadScore(answer, cfg)
	if score <= 0 || score > 100 {
		t.Fatalf("lead score out of range: %d", score)
	}

	// A fully compliant answer still scores: the score ranks follow-up
	// priority, not compliance.
	report := Evaluate(answer, cfg)
	if report.CriticalCount() != 0 && score == 0 {
		t.Fatalf("score must not be derived from finding counts")
	}
}
