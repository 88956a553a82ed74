package models

import "time"

// Coding systems for suggested codes.
const (
	SystemCPT   = "CPT"
	SystemHCPCS = "HCPCS"
	SystemICD10 = "ICD10"
)

// Suggestion flags.
const (
	FlagNeedsReview      = "Needs-Review"
	FlagMissingDocs      = "Missing-Docs"
	FlagCheckPayerPolicy = "Check-Payer-Policy"
)

// Processing error codes.
const (
	ErrInputValidation      = "INPUT_VALIDATION"
	ErrInsufficientEvidence = "INSUFFICIENT_EVIDENCE"
	ErrPolicyConflict       = "POLICY_CONFLICT"
)

// Request modes.
const (
	ModeAnalyze = "analyze"
	ModeExplain = "explain"
)

type Patient struct {
	Age int    `json:"age"`
	Sex string `json:"sex"` // F, M, U
}

type Encounter struct {
	Date         string `json:"date"` // YYYY-MM-DD
	POSCode      string `json:"pos_code"`
	Payer        string `json:"payer"`
	ProviderType string `json:"provider_type"`
}

type Vitals struct {
	BP   string `json:"bp,omitempty"`
	HR   string `json:"hr,omitempty"`
	Temp string `json:"temp,omitempty"`
}

type MedAdministered struct {
	Drug  string `json:"drug"`
	Dose  string `json:"dose"`
	Route string `json:"route"`
	Time  string `json:"time"`
}

// StructuredData carries optional structured hints alongside the free-text note.
// Diagnoses, orders, and procedures feed extraction; vitals and meds are echoed only.
type StructuredData struct {
	Diagnoses        []string          `json:"diagnoses,omitempty"`
	Orders           []string          `json:"orders,omitempty"`
	Procedures       []string          `json:"procedures,omitempty"`
	Vitals           Vitals            `json:"vitals,omitempty"`
	MedsAdministered []MedAdministered `json:"meds_administered,omitempty"`
}

type CodingRequest struct {
	Mode         string          `json:"mode"`
	Patient      Patient         `json:"patient"`
	Encounter    Encounter       `json:"encounter"`
	ClinicalNote string          `json:"clinical_note"`
	Structured   *StructuredData `json:"structured,omitempty"`
}

// ClinicalFacts are deduplicated, alphabetically sorted term sets extracted from
// a single encounter note. Indications hold ICD-10 codes already resolved from
// the problem terms.
type ClinicalFacts struct {
	Problems    []string `json:"problems"`
	Findings    []string `json:"findings"`
	Orders      []string `json:"orders"`
	Procedures  []string `json:"procedures"`
	ImagingLabs []string `json:"imaging_labs"`
	Indications []string `json:"indications"`
}

// CodeSuggestion is a proposed billing code. Confidence is a rule score, an
// additive heuristic clamped to [0.1, 1.0], not a calibrated probability.
type CodeSuggestion struct {
	Code        string   `json:"code"`
	System      string   `json:"system"`
	Description string   `json:"description"`
	Modifiers   []string `json:"modifiers,omitempty"`
	Units       int      `json:"units"`
	Rationale   string   `json:"rationale"`
	Confidence  float64  `json:"confidence"`
	Flags       []string `json:"flags,omitempty"`
}

// Flagged reports whether the suggestion carries any review flag.
func (s CodeSuggestion) Flagged() bool {
	return len(s.Flags) > 0
}

type NCCIEdit struct {
	Primary            string   `json:"primary"`
	Secondary          string   `json:"secondary"`
	Status             string   `json:"status"` // bundled, allowed
	ModifierAllowed    bool     `json:"modifier_allowed"`
	ModifierCandidates []string `json:"modifier_candidates,omitempty"`
	Note               string   `json:"note,omitempty"`
}

type MUEEdit struct {
	Code          string `json:"code"`
	ProposedUnits int    `json:"proposed_units"`
	MUELimit      int    `json:"mue_limit"`
	Status        string `json:"status"` // ok, exceeds
	Note          string `json:"note,omitempty"`
}

type LCDNCDEdit struct {
	PolicyID      string   `json:"policy_id"`
	MeetsCriteria bool     `json:"meets_criteria"`
	CoveredICD10  []string `json:"covered_icd10"`
	MissingICD10  []string `json:"missing_icd10,omitempty"`
	FrequencyOK   bool     `json:"frequency_ok"`
	Note          string   `json:"note,omitempty"`
}

type PayerRuleEdit struct {
	RuleID string `json:"rule_id"`
	Status string `json:"status"` // pass, fail, unknown
	Note   string `json:"note,omitempty"`
}

// ComplianceEdits aggregates the four independent edit families. Each list is a
// pure function of the suggestion set plus reference tables.
type ComplianceEdits struct {
	NCCIPTP    []NCCIEdit      `json:"ncci_ptp"`
	MUE        []MUEEdit       `json:"mue"`
	LCDNCD     []LCDNCDEdit    `json:"lcd_ncd"`
	PayerRules []PayerRuleEdit `json:"payer_rules"`
}

type ClaimReadiness struct {
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	Actions     []string `json:"actions"`
	SubmitReady bool     `json:"submit_ready"`
}

type AuditTraceStep struct {
	Step   string `json:"step"` // extract, map, check, score, explain
	Detail string `json:"detail"`
}

type ExplanationData struct {
	Notes      []string         `json:"notes"`
	AuditTrace []AuditTraceStep `json:"audit_trace"`
}

type ProcessingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CodingResponse struct {
	Version     string            `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	Patient     Patient           `json:"patient"`
	Encounter   Encounter         `json:"encounter"`
	Facts       ClinicalFacts     `json:"facts"`
	Suggestions []CodeSuggestion  `json:"suggestions"`
	Edits       ComplianceEdits   `json:"edits"`
	Readiness   ClaimReadiness    `json:"readiness"`
	Explanation ExplanationData   `json:"explanation"`
	Errors      []ProcessingError `json:"errors"`
}

// Event is the envelope published to the event bus after each processed coding.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
