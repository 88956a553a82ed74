package compliance

import (
	"fmt"
	"strings"

	"github.com/aurevtech/coder/pkg/common/models"
)

// Fixed penalties per unresolved issue, and the submit threshold. Tuned
// against the readiness expectations of the billing workflow, not derived.
const (
	penaltyBundled   = 0.2
	penaltyMUE       = 0.15
	penaltyCoverage  = 0.15
	penaltyPayerRule = 0.1
	penaltyFlagged   = 0.05

	submitThreshold = 0.8
)

// scoreReadiness derives the claim readiness deterministically from the edits:
// score starts at 1.0 and loses a fixed penalty per issue, floored at zero.
// Issues and actions are emitted in stage order: NCCI, MUE, LCD/NCD, payer,
// suggestion flags.
func scoreReadiness(suggestions []models.CodeSuggestion, edits models.ComplianceEdits) models.ClaimReadiness {
	score := 1.0
	issues := []string{}
	actions := []string{}

	unresolvedBundles := 0
	for _, edit := range edits.NCCIPTP {
		if edit.Status != StatusBundled {
			continue
		}
		if hasResolvingModifier(suggestions, edit) {
			continue
		}
		unresolvedBundles++
		score -= penaltyBundled
		issues = append(issues, fmt.Sprintf("NCCI: %s and %s are bundled without a supporting modifier", edit.Primary, edit.Secondary))
		if edit.ModifierAllowed {
			actions = append(actions, fmt.Sprintf("Append modifier %s to %s or remove the bundled code", strings.Join(edit.ModifierCandidates, " or "), edit.Secondary))
		} else {
			actions = append(actions, fmt.Sprintf("Remove %s; it is not separately reportable with %s", edit.Secondary, edit.Primary))
		}
	}

	mueExceeds := 0
	for _, edit := range edits.MUE {
		if edit.Status != StatusExceeds {
			continue
		}
		mueExceeds++
		score -= penaltyMUE
		issues = append(issues, fmt.Sprintf("MUE: %s billed %d units, limit %d", edit.Code, edit.ProposedUnits, edit.MUELimit))
		actions = append(actions, fmt.Sprintf("Reduce units for %s to at most %d", edit.Code, edit.MUELimit))
	}

	for _, edit := range edits.LCDNCD {
		if edit.MeetsCriteria {
			continue
		}
		score -= penaltyCoverage
		issues = append(issues, fmt.Sprintf("Coverage policy %s lacks a supporting diagnosis", edit.PolicyID))
		actions = append(actions, fmt.Sprintf("Document one of: %s", strings.Join(edit.CoveredICD10, ", ")))
	}

	for _, edit := range edits.PayerRules {
		if edit.Status != StatusFail {
			continue
		}
		score -= penaltyPayerRule
		issues = append(issues, fmt.Sprintf("Payer rule %s failed: %s", edit.RuleID, edit.Note))
		actions = append(actions, fmt.Sprintf("Review payer policy for %s", edit.RuleID))
	}

	flagged := 0
	for _, s := range suggestions {
		if !s.Flagged() {
			continue
		}
		flagged++
		score -= penaltyFlagged
		issues = append(issues, fmt.Sprintf("%s (%s) flagged %s", s.Code, s.System, strings.Join(s.Flags, ", ")))
		if hasFlag(s, models.FlagMissingDocs) {
			actions = append(actions, fmt.Sprintf("Attach supporting documentation for %s", s.Code))
		} else {
			actions = append(actions, fmt.Sprintf("Review documentation for %s", s.Code))
		}
	}

	if score < 0 {
		score = 0
	}

	return models.ClaimReadiness{
		Score:       score,
		Issues:      issues,
		Actions:     actions,
		SubmitReady: score >= submitThreshold && flagged == 0 && mueExceeds == 0 && unresolvedBundles == 0,
	}
}

// hasResolvingModifier reports whether the secondary code in a bundled pair
// already carries one of the modifiers the PTP entry permits.
func hasResolvingModifier(suggestions []models.CodeSuggestion, edit models.NCCIEdit) bool {
	if !edit.ModifierAllowed {
		return false
	}
	allowed := make(map[string]struct{}, len(edit.ModifierCandidates))
	for _, mod := range edit.ModifierCandidates {
		allowed[mod] = struct{}{}
	}
	for _, s := range suggestions {
		if s.Code != edit.Secondary {
			continue
		}
		for _, mod := range s.Modifiers {
			if _, ok := allowed[mod]; ok {
				return true
			}
		}
	}
	return false
}

func hasFlag(s models.CodeSuggestion, flag string) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
