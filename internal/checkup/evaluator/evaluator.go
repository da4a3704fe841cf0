package evaluator

import (
	"strings"

	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/config"
)

// rule is one entry in the fixed evaluation list. Every rule fires into
// exactly one tier; overlapping rules fire independently.
type rule struct {
	tier    checkupdomain.Tier
	message string
	match   func(a checkupdomain.ComplianceAnswer, t tables) bool
}

type tables struct {
	vatThresholdEUR int64
	brackets        map[string]config.IncomeBracket
}

// rules is evaluated in order, once, per answer. Order determines finding
// order inside each tier.
var rules = []rule{
	// Presence vs. declared residency. The 183-day presumption is inclusive.
	{checkupdomain.TierCritical,
		"You have been in Portugal 183 days or more: you are presumed a tax resident, but you declared non-resident status. Register your residency change with Finanças.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.MonthsInPortugal >= checkupdomain.TaxResidencyDayThreshold && a.Residency == checkupdomain.ResidencyNonResident
		}},
	{checkupdomain.TierWarning,
		"You have been in Portugal 183 days or more, which presumes tax residency. Confirm your residency status with Finanças.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.MonthsInPortugal >= checkupdomain.TaxResidencyDayThreshold && a.Residency == checkupdomain.ResidencyUnsure
		}},
	{checkupdomain.TierCompliant,
		"Your presence (183+ days) and declared tax residency are consistent.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.MonthsInPortugal >= checkupdomain.TaxResidencyDayThreshold && a.Residency == checkupdomain.ResidencyTaxResident
		}},

	// NIF. Needed for essentially everything; missing is always critical.
	{checkupdomain.TierCritical,
		"You do not have a NIF (tax identification number). This is required before any tax or social security registration.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool { return a.HasNIF == checkupdomain.TriNo }},
	{checkupdomain.TierWarning,
		"You are not sure whether you have a NIF. Check any prior registration with Finanças before proceeding.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool { return a.HasNIF == checkupdomain.TriUnknown }},
	{checkupdomain.TierCompliant,
		"You have a NIF.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool { return a.HasNIF == checkupdomain.TriYes }},

	// Registered activity, self-employed categories only.
	{checkupdomain.TierCritical,
		"You work independently but have not opened an activity (atividade) with Finanças. Income from unregistered activity risks penalties.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasActivity == checkupdomain.TriNo
		}},
	{checkupdomain.TierWarning,
		"You are not sure whether your activity is registered with Finanças. Verify before invoicing.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasActivity == checkupdomain.TriUnknown
		}},
	{checkupdomain.TierCompliant,
		"Your independent activity is registered.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasActivity == checkupdomain.TriYes
		}},

	// VAT. The bracket comparison over-flags: any bracket that could reach
	// the cutoff counts as likely over it.
	{checkupdomain.TierCritical,
		"Your declared income likely exceeds the VAT registration threshold, but you have no VAT number. VAT registration is mandatory above the threshold.",
		func(a checkupdomain.ComplianceAnswer, t tables) bool {
			return a.WorkType.SelfEmployed() && t.mayExceedVATThreshold(a.IncomeBracket) && a.HasVATNumber == checkupdomain.TriNo
		}},
	{checkupdomain.TierWarning,
		"Your VAT registration status is unknown. Confirm whether you are registered for VAT and whether your income requires it.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasVATNumber == checkupdomain.TriUnknown
		}},
	{checkupdomain.TierCompliant,
		"You have a VAT number.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasVATNumber == checkupdomain.TriYes
		}},
	{checkupdomain.TierCompliant,
		"Your declared income is below the VAT threshold; VAT registration is not required yet.",
		func(a checkupdomain.ComplianceAnswer, t tables) bool {
			return a.WorkType.SelfEmployed() && !t.mayExceedVATThreshold(a.IncomeBracket) && a.HasVATNumber == checkupdomain.TriNo
		}},

	// Social security.
	{checkupdomain.TierCritical,
		"You work independently but have no social security (NISS) registration. Contributions are mandatory for registered activity.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasSocialSec == checkupdomain.TriNo
		}},
	{checkupdomain.TierWarning,
		"You are not sure whether you are registered with social security. Verify your NISS status.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasSocialSec == checkupdomain.TriUnknown
		}},
	{checkupdomain.TierCompliant,
		"You are registered with social security.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.WorkType.SelfEmployed() && a.HasSocialSec == checkupdomain.TriYes
		}},

	// Fiscal representative, non-residents only. Never critical: the
	// obligation depends on circumstances we cannot see from the form.
	{checkupdomain.TierWarning,
		"As a non-resident with Portuguese obligations you may need a fiscal representative, and you have none appointed.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.Residency == checkupdomain.ResidencyNonResident && a.HasFiscalRep == checkupdomain.TriNo
		}},
	{checkupdomain.TierWarning,
		"You are not sure whether you have a fiscal representative appointed. Non-residents with obligations in Portugal often need one.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.Residency == checkupdomain.ResidencyNonResident && a.HasFiscalRep == checkupdomain.TriUnknown
		}},
	{checkupdomain.TierCompliant,
		"You have a fiscal representative appointed.",
		func(a checkupdomain.ComplianceAnswer, _ tables) bool {
			return a.Residency == checkupdomain.ResidencyNonResident && a.HasFiscalRep == checkupdomain.TriYes
		}},
}

// Evaluate runs the fixed rule list over a validated answer. Pure and
// deterministic: no I/O, no clock, same input always yields the same report.
func Evaluate(answer checkupdomain.ComplianceAnswer, cfg config.RulesConfig) checkupdomain.ComplianceReport {
	t := newTables(cfg)

	report := checkupdomain.ComplianceReport{
		Critical:  []string{},
		Warning:   []string{},
		Compliant: []string{},
	}
	for _, r := range rules {
		if !r.match(answer, t) {
			continue
		}
		switch r.tier {
		case checkupdomain.TierCritical:
			report.Critical = append(report.Critical, r.message)
		case checkupdomain.TierWarning:
			report.Warning = append(report.Warning, r.message)
		case checkupdomain.TierCompliant:
			report.Compliant = append(report.Compliant, r.message)
		}
	}
	return report
}

func newTables(cfg config.RulesConfig) tables {
	brackets := make(map[string]config.IncomeBracket, len(cfg.IncomeBrackets))
	for _, b := range cfg.IncomeBrackets {
		brackets[b.Code] = b
	}
	return tables{
		vatThresholdEUR: cfg.VATThresholdEUR,
		brackets:        brackets,
	}
}

// mayExceedVATThreshold reports whether the bracket could plausibly include
// or exceed the VAT cutoff. Unknown brackets and open-ended brackets count
// as over.
func (t tables) mayExceedVATThreshold(bracketCode string) bool {
	b, ok := t.brackets[strings.TrimSpace(bracketCode)]
	if !ok {
		return true
	}
	if b.UpperEUR == 0 {
		return true
	}
	return b.UpperEUR >= t.vatThresholdEUR
}
