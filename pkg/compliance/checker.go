// Package compliance evaluates suggested codes against bundling, quantity,
// coverage, and payer rules, and aggregates the results into a claim readiness
// score.
package compliance

import (
	"fmt"
	"strings"

	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/terminology"
)

const (
	StatusBundled = "bundled"
	StatusAllowed = "allowed"

	StatusOK      = "ok"
	StatusExceeds = "exceeds"

	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusUnknown = "unknown"
)

// Telehealth place-of-service codes.
var telehealthPOS = map[string]struct{}{"02": {}, "10": {}}

type Checker struct {
	store *terminology.Store
}

func New(store *terminology.Store) *Checker {
	return &Checker{store: store}
}

// Check runs the four edit families over the suggestion set and derives the
// claim readiness. Every edit is a pure function of the suggestions plus the
// reference tables; no edit mutates another.
func (c *Checker) Check(suggestions []models.CodeSuggestion, encounter models.Encounter) (models.ComplianceEdits, models.ClaimReadiness) {
	edits := models.ComplianceEdits{
		NCCIPTP:    c.ncciEdits(suggestions),
		MUE:        c.mueEdits(suggestions),
		LCDNCD:     c.coverageEdits(suggestions),
		PayerRules: c.payerEdits(suggestions, encounter),
	}
	if edits.NCCIPTP == nil {
		edits.NCCIPTP = []models.NCCIEdit{}
	}
	if edits.MUE == nil {
		edits.MUE = []models.MUEEdit{}
	}
	if edits.LCDNCD == nil {
		edits.LCDNCD = []models.LCDNCDEdit{}
	}
	readiness := scoreReadiness(suggestions, edits)
	return edits, readiness
}

// ncciEdits checks every unordered pair of procedure-system codes against the
// PTP bundling table. Pairs without an entry default to allowed, no modifier.
func (c *Checker) ncciEdits(suggestions []models.CodeSuggestion) []models.NCCIEdit {
	procedures := procedureSuggestions(suggestions)

	var edits []models.NCCIEdit
	for i := 0; i < len(procedures); i++ {
		for j := i + 1; j < len(procedures); j++ {
			primary, secondary := procedures[i], procedures[j]
			rule, found := c.store.BundlingRuleFor(primary.Code, secondary.Code)

			edit := models.NCCIEdit{
				Primary:         primary.Code,
				Secondary:       secondary.Code,
				Status:          StatusAllowed,
				ModifierAllowed: rule.ModifierAllowed,
			}
			if rule.ModifierAllowed {
				edit.ModifierCandidates = rule.Modifiers
			}

			switch {
			case !found:
				edit.Note = "no PTP entry on file; billed separately by default"
			case rule.Bundled && rule.ModifierAllowed:
				edit.Status = StatusBundled
				edit.Note = fmt.Sprintf("%s bundles into %s; modifier may support separate reporting", secondary.Code, primary.Code)
			case rule.Bundled:
				edit.Status = StatusBundled
				edit.Note = fmt.Sprintf("%s is not separately reportable with %s", secondary.Code, primary.Code)
			default:
				edit.Note = "codes may be reported together"
			}

			edits = append(edits, edit)
		}
	}
	return edits
}

// mueEdits compares each suggestion's requested units against the per-code
// maximum. Codes without a table entry default to a limit of one unit.
func (c *Checker) mueEdits(suggestions []models.CodeSuggestion) []models.MUEEdit {
	var edits []models.MUEEdit
	for _, s := range suggestions {
		units := s.Units
		if units <= 0 {
			units = 1
		}
		limit := c.store.UnitLimit(s.Code)

		edit := models.MUEEdit{
			Code:          s.Code,
			ProposedUnits: units,
			MUELimit:      limit,
			Status:        StatusOK,
		}
		if units > limit {
			edit.Status = StatusExceeds
			edit.Note = fmt.Sprintf("%d units exceed the MUE limit of %d", units, limit)
		}
		edits = append(edits, edit)
	}
	return edits
}

// coverageEdits verifies that each LCD/NCD policy touching the suggestion set
// is supported by at least one suggested diagnosis. Frequency enforcement
// needs claim history, which is not modeled, so frequency is reported ok.
func (c *Checker) coverageEdits(suggestions []models.CodeSuggestion) []models.LCDNCDEdit {
	codes := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		codes = append(codes, s.Code)
	}

	diagnoses := make(map[string]struct{})
	for _, s := range suggestions {
		if s.System == models.SystemICD10 {
			diagnoses[s.Code] = struct{}{}
		}
	}

	var edits []models.LCDNCDEdit
	for _, policy := range c.store.CoveragePolicies(codes) {
		edit := models.LCDNCDEdit{
			PolicyID:     policy.PolicyID,
			CoveredICD10: policy.CoveredICD10,
			FrequencyOK:  true,
		}
		for _, covered := range policy.CoveredICD10 {
			if _, ok := diagnoses[covered]; ok {
				edit.MeetsCriteria = true
				break
			}
		}
		if !edit.MeetsCriteria {
			edit.MissingICD10 = policy.CoveredICD10
			edit.Note = "no suggested diagnosis supports this policy"
		}
		edits = append(edits, edit)
	}
	return edits
}

// payerEdits applies payer-specific checks resolved by exact or substring
// payer-name match, with a default rule set for unknown payers.
func (c *Checker) payerEdits(suggestions []models.CodeSuggestion, encounter models.Encounter) []models.PayerRuleEdit {
	policy, known := c.store.PayerRules(encounter.Payer)

	var edits []models.PayerRuleEdit
	if !known {
		edits = append(edits, models.PayerRuleEdit{
			RuleID: "payer-recognition",
			Status: StatusUnknown,
			Note:   fmt.Sprintf("payer %q not recognised; default rules applied", encounter.Payer),
		})
	}

	edits = append(edits, bilateralEdit(suggestions, policy))

	if _, telehealth := telehealthPOS[encounter.POSCode]; telehealth {
		edits = append(edits, telehealthEdit(suggestions, policy))
	}

	edits = append(edits, frequencyEdits(suggestions, policy)...)
	return edits
}

func bilateralEdit(suggestions []models.CodeSuggestion, policy terminology.PayerPolicy) models.PayerRuleEdit {
	usesFifty := false
	usesSided := false
	for _, s := range suggestions {
		for _, mod := range s.Modifiers {
			switch mod {
			case "50":
				usesFifty = true
			case "RT", "LT":
				usesSided = true
			}
		}
	}

	edit := models.PayerRuleEdit{RuleID: "bilateral-modifier", Status: StatusPass}
	switch policy.BilateralPreference {
	case "50":
		if usesSided {
			edit.Status = StatusFail
			edit.Note = "payer prefers modifier 50 over RT/LT for bilateral procedures"
		}
	case "RT_LT":
		if usesFifty {
			edit.Status = StatusFail
			edit.Note = "payer prefers RT/LT over modifier 50 for bilateral procedures"
		}
	}
	return edit
}

func telehealthEdit(suggestions []models.CodeSuggestion, policy terminology.PayerPolicy) models.PayerRuleEdit {
	accepted := make(map[string]struct{}, len(policy.TelehealthModifiers))
	for _, mod := range policy.TelehealthModifiers {
		accepted[mod] = struct{}{}
	}

	for _, s := range suggestions {
		if s.System != models.SystemCPT && s.System != models.SystemHCPCS {
			continue
		}
		for _, mod := range s.Modifiers {
			if _, ok := accepted[mod]; ok {
				return models.PayerRuleEdit{RuleID: "telehealth-modifier", Status: StatusPass}
			}
		}
	}

	return models.PayerRuleEdit{
		RuleID: "telehealth-modifier",
		Status: StatusFail,
		Note: fmt.Sprintf("telehealth place of service requires one of modifiers %s",
			strings.Join(policy.TelehealthModifiers, ", ")),
	}
}

func frequencyEdits(suggestions []models.CodeSuggestion, policy terminology.PayerPolicy) []models.PayerRuleEdit {
	var edits []models.PayerRuleEdit
	for _, s := range suggestions {
		limit, ok := policy.FrequencyLimits[s.Code]
		if !ok {
			continue
		}
		ruleID := fmt.Sprintf("frequency-cap-%s", s.Code)

		units := s.Units
		if units <= 0 {
			units = 1
		}
		switch {
		case limit.PerVisit > 0 && units > limit.PerVisit:
			edits = append(edits, models.PayerRuleEdit{
				RuleID: ruleID,
				Status: StatusFail,
				Note:   fmt.Sprintf("%s billed %d times; payer caps at %d per visit", s.Code, units, limit.PerVisit),
			})
		case limit.PerVisit > 0:
			edits = append(edits, models.PayerRuleEdit{RuleID: ruleID, Status: StatusPass})
		default:
			// Per-year and per-episode caps need claim history.
			edits = append(edits, models.PayerRuleEdit{
				RuleID: ruleID,
				Status: StatusUnknown,
				Note:   fmt.Sprintf("%s carries a periodic cap; claim history unavailable", s.Code),
			})
		}
	}
	return edits
}

func procedureSuggestions(suggestions []models.CodeSuggestion) []models.CodeSuggestion {
	var procedures []models.CodeSuggestion
	for _, s := range suggestions {
		if s.System == models.SystemCPT || s.System == models.SystemHCPCS {
			procedures = append(procedures, s)
		}
	}
	return procedures
}
