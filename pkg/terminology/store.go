package terminology

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProcedureCode describes a CPT/HCPCS code and its MUE unit limit.
type ProcedureCode struct {
	Description string `yaml:"description" json:"description"`
	MUELimit    int    `yaml:"mue_limit" json:"mue_limit"`
}

// BundlingRule is an NCCI PTP entry for an ordered (primary, secondary) pair.
type BundlingRule struct {
	Primary         string   `yaml:"primary" json:"primary"`
	Secondary       string   `yaml:"secondary" json:"secondary"`
	Bundled         bool     `yaml:"bundled" json:"bundled"`
	ModifierAllowed bool     `yaml:"modifier_allowed" json:"modifier_allowed"`
	Modifiers       []string `yaml:"modifiers" json:"modifiers"`
}

// FrequencyLimit caps how often a code may be billed per period. Periods other
// than per_visit require claim history, which this service does not model.
type FrequencyLimit struct {
	PerYear    int `yaml:"per_year,omitempty" json:"per_year,omitempty"`
	PerVisit   int `yaml:"per_visit,omitempty" json:"per_visit,omitempty"`
	PerEpisode int `yaml:"per_episode,omitempty" json:"per_episode,omitempty"`
}

// PayerPolicy holds payer-specific billing preferences.
type PayerPolicy struct {
	BilateralPreference string                    `yaml:"bilateral_preference" json:"bilateral_preference"`
	TelehealthModifiers []string                  `yaml:"telehealth_modifiers" json:"telehealth_modifiers"`
	FrequencyLimits     map[string]FrequencyLimit `yaml:"frequency_limits" json:"frequency_limits"`
}

// CoveragePolicy is a simplified LCD/NCD determination: the procedure codes it
// governs and the diagnoses that justify them.
type CoveragePolicy struct {
	PolicyID              string         `yaml:"policy_id" json:"policy_id"`
	Codes                 []string       `yaml:"codes" json:"codes"`
	CoveredICD10          []string       `yaml:"covered_icd10" json:"covered_icd10"`
	Frequency             FrequencyLimit `yaml:"frequency" json:"frequency"`
	DocumentationRequired []string       `yaml:"documentation_required" json:"documentation_required"`
}

// Store is the read-only terminology and rule reference. It is immutable after
// load and safe to share across concurrent requests.
type Store struct {
	Procedures map[string]ProcedureCode  `yaml:"procedures" json:"procedures"`
	Diagnoses  map[string]string         `yaml:"diagnoses" json:"diagnoses"`
	TermCodes  map[string][]string       `yaml:"term_codes" json:"term_codes"`
	Bundling   []BundlingRule            `yaml:"bundling" json:"bundling"`
	Modifiers  map[string]string         `yaml:"modifiers" json:"modifiers"`
	Payers     map[string]PayerPolicy    `yaml:"payers" json:"payers"`
	Coverage   map[string]CoveragePolicy `yaml:"coverage" json:"coverage"`
}

// Load reads a terminology override file, falling back to the compiled-in
// tables when no path is given.
func Load(path string) (*Store, error) {
	if path == "" {
		return DefaultStore(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultStore(), err
	}
	var store Store
	if err := yaml.Unmarshal(content, &store); err != nil {
		return nil, err
	}
	if len(store.Procedures) == 0 && len(store.Diagnoses) == 0 {
		return nil, fmt.Errorf("terminology tables empty")
	}
	return &store, nil
}

// DescribeProcedure returns the CPT/HCPCS description for a code.
func (s *Store) DescribeProcedure(code string) string {
	if proc, ok := s.Procedures[code]; ok {
		return proc.Description
	}
	return fmt.Sprintf("Unknown CPT code %s", code)
}

// DescribeDiagnosis returns the ICD-10 description for a code.
func (s *Store) DescribeDiagnosis(code string) string {
	if desc, ok := s.Diagnoses[code]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown ICD-10 code %s", code)
}

// KnownDiagnosis reports whether the code exists in the diagnosis table.
func (s *Store) KnownDiagnosis(code string) bool {
	_, ok := s.Diagnoses[code]
	return ok
}

// UnitLimit returns the MUE limit for a code, defaulting to 1 unit.
func (s *Store) UnitLimit(code string) int {
	if proc, ok := s.Procedures[code]; ok && proc.MUELimit > 0 {
		return proc.MUELimit
	}
	return 1
}

// ModifierDescription explains a billing modifier code.
func (s *Store) ModifierDescription(code string) string {
	if desc, ok := s.Modifiers[code]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown modifier %s", code)
}

// CandidateCodes finds codes related to a clinical term: an exact lookup plus
// substring matching in both directions. Results are deduplicated and sorted.
func (s *Store) CandidateCodes(term string) []string {
	termLower := strings.ToLower(strings.TrimSpace(term))
	if termLower == "" {
		return nil
	}

	seen := make(map[string]struct{})
	if codes, ok := s.TermCodes[termLower]; ok {
		for _, code := range codes {
			seen[code] = struct{}{}
		}
	}
	for mapped, codes := range s.TermCodes {
		if strings.Contains(mapped, termLower) || strings.Contains(termLower, mapped) {
			for _, code := range codes {
				seen[code] = struct{}{}
			}
		}
	}

	result := make([]string, 0, len(seen))
	for code := range seen {
		result = append(result, code)
	}
	sort.Strings(result)
	return result
}

// BundlingRuleFor resolves the NCCI PTP entry for a code pair, trying the
// reverse key before defaulting to allowed with no modifier.
func (s *Store) BundlingRuleFor(primary, secondary string) (BundlingRule, bool) {
	for _, rule := range s.Bundling {
		if rule.Primary == primary && rule.Secondary == secondary {
			return rule, true
		}
	}
	for _, rule := range s.Bundling {
		if rule.Primary == secondary && rule.Secondary == primary {
			reversed := rule
			reversed.Primary = primary
			reversed.Secondary = secondary
			return reversed, true
		}
	}
	return BundlingRule{Primary: primary, Secondary: secondary}, false
}

// PayerRules resolves payer-specific rules by exact then substring match,
// falling back to a default rule set for unrecognised payers.
func (s *Store) PayerRules(payer string) (PayerPolicy, bool) {
	if policy, ok := s.Payers[payer]; ok {
		return policy, true
	}

	payerLower := strings.ToLower(strings.TrimSpace(payer))
	names := make([]string, 0, len(s.Payers))
	for name := range s.Payers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		nameLower := strings.ToLower(name)
		if strings.Contains(payerLower, nameLower) || strings.Contains(nameLower, payerLower) {
			return s.Payers[name], true
		}
	}

	return PayerPolicy{
		BilateralPreference: "RT_LT",
		TelehealthModifiers: []string{"95"},
		FrequencyLimits:     map[string]FrequencyLimit{},
	}, false
}

// CoveragePolicies returns every LCD/NCD policy whose code list intersects the
// given codes, in stable policy-name order.
func (s *Store) CoveragePolicies(codes []string) []CoveragePolicy {
	codeSet := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		codeSet[code] = struct{}{}
	}

	names := make([]string, 0, len(s.Coverage))
	for name := range s.Coverage {
		names = append(names, name)
	}
	sort.Strings(names)

	var matched []CoveragePolicy
	for _, name := range names {
		policy := s.Coverage[name]
		for _, code := range policy.Codes {
			if _, ok := codeSet[code]; ok {
				matched = append(matched, policy)
				break
			}
		}
	}
	return matched
}

var (
	cptPattern        = regexp.MustCompile(`^\d{5}$`)
	diagnosisPrefixes = "RIEJKLMNSZ"
)

// IsProcedureCode reports whether a code has the 5-digit CPT shape.
func IsProcedureCode(code string) bool {
	return cptPattern.MatchString(code)
}

// IsDiagnosisCode reports whether a code starts with a recognised ICD-10
// chapter letter.
func IsDiagnosisCode(code string) bool {
	if code == "" {
		return false
	}
	return strings.ContainsRune(diagnosisPrefixes, rune(code[0]))
}
