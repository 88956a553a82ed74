// Package mapper converts clinical facts into ranked billing-code suggestions.
// Confidence values are additive rule scores with a fixed clamp, kept stable so
// downstream readiness thresholds stay meaningful.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/terminology"
)

const (
	minConfidence = 0.1
	maxConfidence = 1.0

	diagnosisDirectConfidence = 0.9
	diagnosisBaseConfidence   = 0.7
	procedureBaseConfidence   = 0.8
	emBaseConfidence          = 0.8

	reviewThreshold = 0.7
)

// Procedures whose mapping is reliable enough for a confidence bonus.
var commonProcedures = []string{"ecg", "x-ray", "blood draw", "suture"}

// Procedures that need coder review regardless of mapping confidence.
var complexProcedures = []string{"repair", "excision", "biopsy"}

type Mapper struct {
	store *terminology.Store
}

func New(store *terminology.Store) *Mapper {
	return &Mapper{store: store}
}

// Suggest generates diagnosis, procedure, and E/M suggestions for the facts,
// deduplicates by (code, system) keeping the first occurrence, and stable-sorts
// descending by confidence.
func (m *Mapper) Suggest(facts models.ClinicalFacts, encounter models.Encounter) []models.CodeSuggestion {
	var suggestions []models.CodeSuggestion
	suggestions = append(suggestions, m.diagnosisSuggestions(facts)...)
	suggestions = append(suggestions, m.procedureSuggestions(facts)...)
	suggestions = append(suggestions, m.emSuggestions(facts, encounter)...)

	unique := dedupe(suggestions)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Confidence > unique[j].Confidence
	})
	return unique
}

func (m *Mapper) diagnosisSuggestions(facts models.ClinicalFacts) []models.CodeSuggestion {
	var suggestions []models.CodeSuggestion

	for _, indication := range facts.Indications {
		if !m.store.KnownDiagnosis(indication) {
			continue
		}
		suggestions = append(suggestions, models.CodeSuggestion{
			Code:        indication,
			System:      models.SystemICD10,
			Description: m.store.DescribeDiagnosis(indication),
			Units:       1,
			Rationale:   "Direct diagnostic code from clinical documentation",
			Confidence:  diagnosisDirectConfidence,
		})
	}

	for _, problem := range facts.Problems {
		for _, code := range m.store.CandidateCodes(problem) {
			if !terminology.IsDiagnosisCode(code) {
				continue
			}
			confidence := m.diagnosisConfidence(problem, code)
			var flags []string
			if confidence < reviewThreshold {
				flags = append(flags, models.FlagNeedsReview)
			}
			suggestions = append(suggestions, models.CodeSuggestion{
				Code:        code,
				System:      models.SystemICD10,
				Description: m.store.DescribeDiagnosis(code),
				Units:       1,
				Rationale:   fmt.Sprintf("Mapped from clinical problem: %s", problem),
				Confidence:  confidence,
				Flags:       flags,
			})
		}
	}

	return suggestions
}

func (m *Mapper) procedureSuggestions(facts models.ClinicalFacts) []models.CodeSuggestion {
	var suggestions []models.CodeSuggestion

	var terms []string
	terms = append(terms, facts.Procedures...)
	terms = append(terms, facts.Orders...)
	terms = append(terms, facts.ImagingLabs...)

	for _, term := range terms {
		for _, code := range m.store.CandidateCodes(term) {
			if !terminology.IsProcedureCode(code) {
				continue
			}
			suggestions = append(suggestions, models.CodeSuggestion{
				Code:        code,
				System:      models.SystemCPT,
				Description: m.store.DescribeProcedure(code),
				Units:       1,
				Rationale:   fmt.Sprintf("Mapped from procedure: %s", term),
				Confidence:  m.procedureConfidence(term),
				Flags:       procedureFlags(term, facts),
			})
		}
	}

	return suggestions
}

// emSuggestions yields at most one E/M suggestion per request, selected by
// place of service, patient status, and encounter complexity.
func (m *Mapper) emSuggestions(facts models.ClinicalFacts, encounter models.Encounter) []models.CodeSuggestion {
	isNewPatient := strings.Contains(strings.ToLower(encounter.ProviderType), "new")
	complexity := assessComplexity(facts)
	code := emCode(complexity, isNewPatient, encounter.POSCode)
	if code == "" {
		return nil
	}

	confidence := emBaseConfidence
	if len(facts.Problems) > 0 && len(facts.Findings) > 0 {
		confidence += 0.1
	}
	if complexity == "high" {
		confidence += 0.05
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	var flags []string
	if len(facts.Problems) == 0 && len(facts.Findings) == 0 {
		flags = append(flags, models.FlagMissingDocs)
	}

	var modifiers []string
	if len(facts.Procedures) > 0 && len(facts.Problems) > 1 {
		// Modifier 25: significant, separately identifiable E/M service.
		modifiers = append(modifiers, "25")
	}

	return []models.CodeSuggestion{{
		Code:        code,
		System:      models.SystemCPT,
		Description: m.store.DescribeProcedure(code),
		Modifiers:   modifiers,
		Units:       1,
		Rationale:   fmt.Sprintf("E/M code for %s complexity encounter", complexity),
		Confidence:  confidence,
		Flags:       flags,
	}}
}

func (m *Mapper) diagnosisConfidence(problem, code string) float64 {
	confidence := diagnosisBaseConfidence

	description := strings.ToLower(m.store.DescribeDiagnosis(code))
	problemLower := strings.ToLower(problem)
	if strings.Contains(description, problemLower) || strings.Contains(problemLower, description) {
		confidence += 0.2
	}

	if strings.HasSuffix(code, ".9") || strings.Contains(description, "unspecified") {
		confidence -= 0.1
	}

	return clamp(confidence)
}

func (m *Mapper) procedureConfidence(term string) float64 {
	confidence := procedureBaseConfidence
	termLower := strings.ToLower(term)
	for _, proc := range commonProcedures {
		if strings.Contains(termLower, proc) {
			confidence += 0.1
			break
		}
	}
	return clamp(confidence)
}

func procedureFlags(term string, facts models.ClinicalFacts) []string {
	var flags []string
	if len(facts.Indications) == 0 {
		flags = append(flags, models.FlagMissingDocs)
	}
	termLower := strings.ToLower(term)
	for _, proc := range complexProcedures {
		if strings.Contains(termLower, proc) {
			flags = append(flags, models.FlagNeedsReview)
			break
		}
	}
	return flags
}

// assessComplexity buckets the encounter by counting problems, procedures, and
// orders with per-category caps.
func assessComplexity(facts models.ClinicalFacts) string {
	score := capCount(len(facts.Problems), 3) +
		capCount(len(facts.Procedures), 2) +
		capCount(len(facts.Orders), 2)

	switch {
	case score >= 5:
		return "high"
	case score >= 3:
		return "moderate"
	default:
		return "low"
	}
}

// emCode is the fixed place-of-service by patient-status by complexity table.
func emCode(complexity string, isNewPatient bool, posCode string) string {
	if posCode == "23" { // emergency department
		switch complexity {
		case "high":
			return "99284"
		case "moderate":
			return "99283"
		default:
			return "99282"
		}
	}

	if isNewPatient {
		switch complexity {
		case "high":
			return "99205"
		case "moderate":
			return "99204"
		default:
			return "99203"
		}
	}

	switch complexity {
	case "high":
		return "99215"
	case "moderate":
		return "99214"
	default:
		return "99213"
	}
}

func dedupe(suggestions []models.CodeSuggestion) []models.CodeSuggestion {
	type key struct {
		code   string
		system string
	}
	seen := make(map[key]struct{}, len(suggestions))
	unique := make([]models.CodeSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		k := key{code: s.Code, system: s.System}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

func capCount(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}

func clamp(confidence float64) float64 {
	if confidence > maxConfidence {
		return maxConfidence
	}
	if confidence < minConfidence {
		return minConfidence
	}
	return confidence
}
