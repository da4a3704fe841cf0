package evaluator

import (
	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/config"
)

// LeadScore weighs the same answer for sales triage. It is deliberately
// separate from the compliance tiers: the score serves a different consumer
// and must never influence the report counts.
func LeadScore(answer checkupdomain.ComplianceAnswer, cfg config.RulesConfig) int {
	score := 0

	// Income weight: higher brackets are worth more to follow up on.
	for _, b := range cfg.IncomeBrackets {
		if b.Code != answer.IncomeBracket {
			continue
		}
		switch {
		case b.LowerEUR >= 60_000:
			score += 40
		case b.LowerEUR >= 30_000:
			score += 30
		case b.LowerEUR >= 15_000:
			score += 20
		default:
			score += 10
		}
		break
	}

	// Urgency signals.
	if answer.Urgent {
		score += 20
	}
	if answer.MonthsInPortugal >= checkupdomain.TaxResidencyDayThreshold {
		score += 10
	}

	// Self-employed categories need the most help.
	if answer.WorkType.SelfEmployed() {
		score += 10
	}

	// Completeness of optional fields.
	if answer.Phone != "" {
		score += 10
	}
	if answer.Notes != "" {
		score += 5
	}
	answered := 0
	for _, t := range []checkupdomain.TriState{
		answer.HasNIF, answer.HasActivity, answer.HasVATNumber, answer.HasSocialSec, answer.HasFiscalRep,
	} {
		if t != checkupdomain.TriUnknown {
			answered++
		}
	}
	score += answered

	if score > 100 {
		score = 100
	}
	return score
}
