package extractor

import (
	"reflect"
	"sort"
	"testing"

	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/terminology"
)

func testExtractor() *Extractor {
	return New(terminology.DefaultStore())
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestExtractExpandsAbbreviations(t *testing.T) {
	facts := testExtractor().Extract("Pt c/o palpitations.", nil)

	if !contains(facts.Problems, "palpitations") {
		t.Fatalf("expected palpitations in problems, got %v", facts.Problems)
	}
	if !contains(facts.Indications, "R00.2") {
		t.Fatalf("expected R00.2 indication, got %v", facts.Indications)
	}
}

func TestExtractHandlesWithoutShorthand(t *testing.T) {
	// w/o must expand before w/ or "w/o fever" would corrupt.
	facts := testExtractor().Extract("Pt presents with rash w/o fever.", nil)

	if !contains(facts.Problems, "rash") {
		t.Fatalf("expected rash in problems, got %v", facts.Problems)
	}
	if !contains(facts.Problems, "fever") {
		t.Fatalf("expected fever in problems, got %v", facts.Problems)
	}
}

func TestExtractCapturesVitals(t *testing.T) {
	facts := testExtractor().Extract("Patient stable. BP: 120/80. HR: 88.", nil)

	if !contains(facts.Findings, "vital sign: bp: 120/80") {
		t.Fatalf("expected blood pressure vital, got %v", facts.Findings)
	}
	if !contains(facts.Findings, "vital sign: hr: 88") {
		t.Fatalf("expected heart rate vital, got %v", facts.Findings)
	}
}

func TestExtractCapturesOrdersAndProcedures(t *testing.T) {
	facts := testExtractor().Extract(
		"Patient complains of chest pain. Ordered: chest x-ray. ECG obtained in office.", nil)

	if !contains(facts.Orders, "chest x-ray") {
		t.Fatalf("expected chest x-ray in orders, got %v", facts.Orders)
	}
	if !contains(facts.Orders, "ecg") {
		t.Fatalf("expected ecg in orders, got %v", facts.Orders)
	}
	if !contains(facts.Procedures, "ecg obtained") {
		t.Fatalf("expected ecg obtained in procedures, got %v", facts.Procedures)
	}
}

func TestExtractMergesStructuredHints(t *testing.T) {
	hints := &models.StructuredData{
		Diagnoses:  []string{" I10 "},
		Orders:     []string{"ECG 12-lead"},
		Procedures: []string{"blood draw"},
	}
	facts := testExtractor().Extract("Routine follow-up visit today.", hints)

	if !contains(facts.Indications, "I10") {
		t.Fatalf("expected hinted diagnosis I10, got %v", facts.Indications)
	}
	if !contains(facts.Orders, "ECG 12-lead") {
		t.Fatalf("expected hinted order, got %v", facts.Orders)
	}
	if !contains(facts.Procedures, "blood draw") {
		t.Fatalf("expected hinted procedure, got %v", facts.Procedures)
	}
}

func TestExtractDeterministicAndSorted(t *testing.T) {
	note := "Patient complains of headache and nausea. Fever noted. Plan: labs and CBC."
	e := testExtractor()

	first := e.Extract(note, nil)
	second := e.Extract(note, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical facts for identical input")
	}

	if !sort.StringsAreSorted(first.Problems) {
		t.Fatalf("expected sorted problems, got %v", first.Problems)
	}
	if !sort.StringsAreSorted(first.Indications) {
		t.Fatalf("expected sorted indications, got %v", first.Indications)
	}
}

func TestExtractEmptyNoteYieldsEmptySets(t *testing.T) {
	facts := testExtractor().Extract("", nil)

	for name, set := range map[string][]string{
		"problems":     facts.Problems,
		"findings":     facts.Findings,
		"orders":       facts.Orders,
		"procedures":   facts.Procedures,
		"imaging_labs": facts.ImagingLabs,
		"indications":  facts.Indications,
	} {
		if set == nil {
			t.Fatalf("expected non-nil %s slice", name)
		}
		if len(set) != 0 {
			t.Fatalf("expected empty %s, got %v", name, set)
		}
	}
}
