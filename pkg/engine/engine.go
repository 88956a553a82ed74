// Package engine sequences the coding pipeline: fact extraction, code mapping,
// and compliance checking, with an audit trail and a degraded-but-complete
// response on internal failure.
package engine

import (
	"fmt"
	"time"

	"github.com/aurevtech/coder/pkg/common/logger"
	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/compliance"
	"github.com/aurevtech/coder/pkg/extractor"
	"github.com/aurevtech/coder/pkg/mapper"
	"github.com/aurevtech/coder/pkg/terminology"
)

const Version = "AAC-0.2"

type Extractor interface {
	Extract(note string, hints *models.StructuredData) models.ClinicalFacts
}

type Mapper interface {
	Suggest(facts models.ClinicalFacts, encounter models.Encounter) []models.CodeSuggestion
}

type Checker interface {
	Check(suggestions []models.CodeSuggestion, encounter models.Encounter) (models.ComplianceEdits, models.ClaimReadiness)
}

type Engine struct {
	extractor Extractor
	mapper    Mapper
	checker   Checker
}

// New wires the standard pipeline stages over a shared terminology store.
func New(store *terminology.Store) *Engine {
	return NewWithStages(extractor.New(store), mapper.New(store), compliance.New(store))
}

// NewWithStages builds an engine from explicit stages.
func NewWithStages(e Extractor, m Mapper, c Checker) *Engine {
	return &Engine{extractor: e, mapper: m, checker: c}
}

// Process runs extract, map, check, and score over a single request. The
// response is always structurally complete: any failure inside the pipeline is
// recovered and reported as a single INSUFFICIENT_EVIDENCE error with a forced
// zero readiness score.
func (e *Engine) Process(req models.CodingRequest) (resp models.CodingResponse) {
	resp = models.CodingResponse{
		Version:     Version,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Patient:     req.Patient,
		Encounter:   req.Encounter,
		Facts:       emptyFacts(),
		Suggestions: []models.CodeSuggestion{},
		Edits:       emptyEdits(),
		Explanation: models.ExplanationData{Notes: []string{}},
		Errors:      []models.ProcessingError{},
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("cause", r).Error("coding pipeline failed")
			resp.Errors = append(resp.Errors, models.ProcessingError{
				Code:    models.ErrInsufficientEvidence,
				Message: fmt.Sprintf("error processing request: %v", r),
			})
			resp.Readiness = models.ClaimReadiness{
				Score:       0.0,
				Issues:      []string{"Processing error occurred"},
				Actions:     []string{"Review input data and try again"},
				SubmitReady: false,
			}
		}
	}()

	e.trace(&resp, "extract", "Extracting clinical facts from note")
	resp.Facts = e.extractor.Extract(req.ClinicalNote, req.Structured)
	e.trace(&resp, "extract", fmt.Sprintf("Extracted %d problems, %d procedures",
		len(resp.Facts.Problems), len(resp.Facts.Procedures)))

	e.trace(&resp, "map", "Mapping clinical facts to billing codes")
	resp.Suggestions = e.mapper.Suggest(resp.Facts, req.Encounter)
	e.trace(&resp, "map", fmt.Sprintf("Generated %d code suggestions", len(resp.Suggestions)))

	e.trace(&resp, "check", "Checking NCCI, MUE, coverage, and payer rules")
	resp.Edits, resp.Readiness = e.checker.Check(resp.Suggestions, req.Encounter)
	e.trace(&resp, "score", fmt.Sprintf("Calculated readiness score: %.2f", resp.Readiness.Score))

	if req.Mode == models.ModeExplain {
		resp.Explanation.Notes = explanationNotes(resp)
		e.trace(&resp, "explain", fmt.Sprintf("Generated %d explanation notes", len(resp.Explanation.Notes)))
	}

	return resp
}

func (e *Engine) trace(resp *models.CodingResponse, step, detail string) {
	resp.Explanation.AuditTrace = append(resp.Explanation.AuditTrace, models.AuditTraceStep{
		Step:   step,
		Detail: detail,
	})
}

// explanationNotes summarises the response for explain mode.
func explanationNotes(resp models.CodingResponse) []string {
	notes := []string{fmt.Sprintf(
		"Analyzed clinical note and generated %d code suggestions with %.0f%% claim readiness",
		len(resp.Suggestions), resp.Readiness.Score*100,
	)}

	if len(resp.Suggestions) > 0 {
		cptCount := 0
		icdCount := 0
		for _, s := range resp.Suggestions {
			switch s.System {
			case models.SystemCPT, models.SystemHCPCS:
				cptCount++
			case models.SystemICD10:
				icdCount++
			}
		}
		notes = append(notes, fmt.Sprintf("Suggested %d CPT/HCPCS codes and %d ICD-10 codes", cptCount, icdCount))
	}

	if len(resp.Readiness.Issues) > 0 {
		notes = append(notes, fmt.Sprintf("Identified %d compliance issues requiring attention", len(resp.Readiness.Issues)))
	}

	highConfidence := 0
	flagged := 0
	for _, s := range resp.Suggestions {
		if s.Confidence >= 0.8 {
			highConfidence++
		}
		if s.Flagged() {
			flagged++
		}
	}
	if highConfidence > 0 {
		notes = append(notes, fmt.Sprintf("%d codes have high confidence (>=80%%)", highConfidence))
	}
	if flagged > 0 {
		notes = append(notes, fmt.Sprintf("%d codes require additional review or documentation", flagged))
	}

	return notes
}

func emptyFacts() models.ClinicalFacts {
	return models.ClinicalFacts{
		Problems:    []string{},
		Findings:    []string{},
		Orders:      []string{},
		Procedures:  []string{},
		ImagingLabs: []string{},
		Indications: []string{},
	}
}

func emptyEdits() models.ComplianceEdits {
	return models.ComplianceEdits{
		NCCIPTP:    []models.NCCIEdit{},
		MUE:        []models.MUEEdit{},
		LCDNCD:     []models.LCDNCDEdit{},
		PayerRules: []models.PayerRuleEdit{},
	}
}
