package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/terminology"
)

func testEngine() *Engine {
	return New(terminology.DefaultStore())
}

func validRequest(mode string) models.CodingRequest {
	return models.CodingRequest{
		Mode:    mode,
		Patient: models.Patient{Age: 46, Sex: "F"},
		Encounter: models.Encounter{
			Date:         "2025-08-16",
			POSCode:      "11",
			Payer:        "GenericPPO",
			ProviderType: "Internal Medicine",
		},
		ClinicalNote: "Patient complains of palpitations. ECG obtained and interpreted, normal sinus rhythm.",
	}
}

func TestProcessProducesSuggestionsAndTrace(t *testing.T) {
	resp := testEngine().Process(validRequest(models.ModeAnalyze))

	if resp.Version != Version {
		t.Fatalf("expected version %s, got %s", Version, resp.Version)
	}
	if len(resp.Errors) != 0 {
		t.Fatalf("expected no processing errors, got %v", resp.Errors)
	}

	found := map[string]bool{}
	for _, p := range resp.Facts.Problems {
		found[p] = true
	}
	if !found["palpitations"] {
		t.Fatalf("expected palpitations among problems, got %v", resp.Facts.Problems)
	}

	var hasECG, hasDx bool
	for _, s := range resp.Suggestions {
		if s.Code == "93000" && s.System == models.SystemCPT {
			hasECG = true
		}
		if s.Code == "R00.2" && s.System == models.SystemICD10 {
			hasDx = true
		}
	}
	if !hasECG || !hasDx {
		t.Fatalf("expected 93000 and R00.2 suggestions, got %v", resp.Suggestions)
	}

	steps := map[string]bool{}
	for _, step := range resp.Explanation.AuditTrace {
		steps[step.Step] = true
	}
	for _, want := range []string{"extract", "map", "check", "score"} {
		if !steps[want] {
			t.Fatalf("expected %s step in audit trace, got %v", want, resp.Explanation.AuditTrace)
		}
	}

	// Analyze mode carries the trace but no narrative notes.
	if len(resp.Explanation.Notes) != 0 {
		t.Fatalf("expected no notes in analyze mode, got %v", resp.Explanation.Notes)
	}
}

func TestProcessExplainModeAddsNotes(t *testing.T) {
	resp := testEngine().Process(validRequest(models.ModeExplain))

	if len(resp.Explanation.Notes) == 0 {
		t.Fatal("expected explanation notes in explain mode")
	}
	if !strings.Contains(resp.Explanation.Notes[0], "claim readiness") {
		t.Fatalf("expected readiness summary note, got %q", resp.Explanation.Notes[0])
	}
}

func TestProcessDeterministicForIdenticalInput(t *testing.T) {
	eng := testEngine()
	req := validRequest(models.ModeAnalyze)

	first := eng.Process(req)
	second := eng.Process(req)

	if !reflect.DeepEqual(first.Facts, second.Facts) {
		t.Fatal("expected identical facts across runs")
	}
	if !reflect.DeepEqual(first.Suggestions, second.Suggestions) {
		t.Fatal("expected identical suggestions across runs")
	}
	if !reflect.DeepEqual(first.Readiness, second.Readiness) {
		t.Fatal("expected identical readiness across runs")
	}
}

func TestProcessRoutinePhysicalIsLowComplexity(t *testing.T) {
	req := validRequest(models.ModeAnalyze)
	req.ClinicalNote = "Patient presents for annual physical exam. Review of systems negative. Physical examination normal."

	resp := testEngine().Process(req)

	var em *models.CodeSuggestion
	for i := range resp.Suggestions {
		s := &resp.Suggestions[i]
		if s.System == models.SystemCPT && strings.HasPrefix(s.Code, "992") {
			em = s
			continue
		}
		if s.System == models.SystemCPT {
			t.Fatalf("expected no procedure suggestions, got %s", s.Code)
		}
	}
	if em == nil || em.Code != "99213" {
		t.Fatalf("expected 99213 for a routine established visit, got %v", resp.Suggestions)
	}
	if em.Flagged() {
		t.Fatalf("expected unflagged E/M suggestion, got %v", em.Flags)
	}
}

func TestProcessWoundRepairScenario(t *testing.T) {
	req := validRequest(models.ModeAnalyze)
	req.ClinicalNote = "Patient with laceration to hand. Simple repair performed with sutures."

	resp := testEngine().Process(req)

	var repair, dx bool
	for _, s := range resp.Suggestions {
		if s.Code == "12001" && s.System == models.SystemCPT {
			repair = true
			hasReview := false
			for _, flag := range s.Flags {
				if flag == models.FlagNeedsReview {
					hasReview = true
				}
			}
			if !hasReview {
				t.Fatalf("expected Needs-Review on wound repair, got %v", s.Flags)
			}
		}
		if s.Code == "S61.401A" && s.System == models.SystemICD10 {
			dx = true
		}
	}
	if !repair || !dx {
		t.Fatalf("expected 12001 and S61.401A, got %v", resp.Suggestions)
	}
}

func TestProcessScoreWithinBounds(t *testing.T) {
	resp := testEngine().Process(validRequest(models.ModeAnalyze))

	if resp.Readiness.Score < 0 || resp.Readiness.Score > 1 {
		t.Fatalf("expected score within [0,1], got %v", resp.Readiness.Score)
	}

	seen := map[string]bool{}
	for _, s := range resp.Suggestions {
		key := s.Code + "/" + s.System
		if seen[key] {
			t.Fatalf("duplicate suggestion %s", key)
		}
		seen[key] = true
	}
}

type panicExtractor struct{}

func (panicExtractor) Extract(string, *models.StructuredData) models.ClinicalFacts {
	panic("extractor blew up")
}

func TestProcessRecoversToDegradedResponse(t *testing.T) {
	store := terminology.DefaultStore()
	base := New(store)
	eng := NewWithStages(panicExtractor{}, base.mapper, base.checker)

	resp := eng.Process(validRequest(models.ModeAnalyze))

	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 processing error, got %v", resp.Errors)
	}
	if resp.Errors[0].Code != models.ErrInsufficientEvidence {
		t.Fatalf("expected %s, got %s", models.ErrInsufficientEvidence, resp.Errors[0].Code)
	}
	if resp.Readiness.Score != 0 || resp.Readiness.SubmitReady {
		t.Fatalf("expected zero readiness, got %+v", resp.Readiness)
	}
	if resp.Suggestions == nil || resp.Facts.Problems == nil {
		t.Fatal("expected structurally complete response")
	}
	if resp.Version != Version {
		t.Fatalf("expected version on degraded response, got %q", resp.Version)
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	if errs := Validate(validRequest(models.ModeExplain)); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	// Mode defaults to analyze when omitted.
	if errs := Validate(validRequest("")); len(errs) != 0 {
		t.Fatalf("expected blank mode accepted, got %v", errs)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.CodingRequest)
		want   string
	}{
		{"bad mode", func(r *models.CodingRequest) { r.Mode = "summarize" }, "Mode must be"},
		{"negative age", func(r *models.CodingRequest) { r.Patient.Age = -1 }, "age"},
		{"bad sex", func(r *models.CodingRequest) { r.Patient.Sex = "X" }, "sex must be"},
		{"missing date", func(r *models.CodingRequest) { r.Encounter.Date = "" }, "date"},
		{"bad date", func(r *models.CodingRequest) { r.Encounter.Date = "08/16/2025" }, "YYYY-MM-DD"},
		{"missing pos", func(r *models.CodingRequest) { r.Encounter.POSCode = " " }, "pos_code"},
		{"missing payer", func(r *models.CodingRequest) { r.Encounter.Payer = "" }, "payer"},
		{"missing provider", func(r *models.CodingRequest) { r.Encounter.ProviderType = "" }, "provider_type"},
		{"short note", func(r *models.CodingRequest) { r.ClinicalNote = "too short" }, "at least 10"},
	}

	for _, tc := range cases {
		req := validRequest(models.ModeAnalyze)
		tc.mutate(&req)
		errs := Validate(req)
		if len(errs) == 0 {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		matched := false
		for _, pe := range errs {
			if pe.Code != models.ErrInputValidation {
				t.Fatalf("%s: expected %s code, got %s", tc.name, models.ErrInputValidation, pe.Code)
			}
			if strings.Contains(pe.Message, tc.want) {
				matched = true
			}
		}
		if !matched {
			t.Fatalf("%s: expected message containing %q, got %v", tc.name, tc.want, errs)
		}
	}
}

func TestValidationErrorMatchesErrorsAs(t *testing.T) {
	err := error(ValidationError{Errors: []models.ProcessingError{
		{Code: models.ErrInputValidation, Message: "bad"},
	}})
	if !IsValidationError(err) {
		t.Fatal("expected IsValidationError to match")
	}
	if err.Error() != "bad" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
