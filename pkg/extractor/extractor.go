// Package extractor derives normalized clinical facts from free-text encounter
// notes. Extraction is rule based: ordered phrase-trigger patterns plus keyword
// scans, deliberately over-generating into deduplicated sets.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/terminology"
)

type Extractor struct {
	store *terminology.Store
}

func New(store *terminology.Store) *Extractor {
	return &Extractor{store: store}
}

// Extract turns a clinical note and optional structured hints into fact sets.
// It never fails on malformed input; the worst case is empty sets. Output
// slices are deduplicated and sorted alphabetically so identical notes always
// yield identical facts.
func (e *Extractor) Extract(note string, hints *models.StructuredData) models.ClinicalFacts {
	note = normalizeNote(note)

	problems := newTermSet()
	findings := newTermSet()
	orders := newTermSet()
	procedures := newTermSet()
	imagingLabs := newTermSet()

	capturePhrases(note, problemPatterns, problems)
	captureKeywords(note, symptomKeywords, problems)

	capturePhrases(note, findingPatterns, findings)
	captureVitals(note, findings)

	capturePhrases(note, orderPatterns, orders)
	captureKeywords(note, testKeywords, orders)

	capturePhrases(note, procedurePatterns, procedures)
	captureKeywords(note, procedureKeywords, procedures)

	capturePhrases(note, resultPatterns, imagingLabs)

	indications := newTermSet()
	for _, problem := range problems.values() {
		for _, code := range e.store.CandidateCodes(problem) {
			if terminology.IsDiagnosisCode(code) {
				indications.add(code)
			}
		}
	}

	if hints != nil {
		for _, dx := range hints.Diagnoses {
			indications.add(strings.TrimSpace(dx))
		}
		for _, order := range hints.Orders {
			orders.add(strings.TrimSpace(order))
		}
		for _, proc := range hints.Procedures {
			procedures.add(strings.TrimSpace(proc))
		}
	}

	return models.ClinicalFacts{
		Problems:    problems.sorted(),
		Findings:    findings.sorted(),
		Orders:      orders.sorted(),
		Procedures:  procedures.sorted(),
		ImagingLabs: imagingLabs.sorted(),
		Indications: indications.sorted(),
	}
}

// normalizeNote collapses whitespace and expands clinical shorthand.
func normalizeNote(note string) string {
	note = strings.TrimSpace(whitespaceRe.ReplaceAllString(note, " "))
	for _, abbrev := range abbreviations {
		note = abbrev.re.ReplaceAllString(note, abbrev.expansion)
	}
	return note
}

func capturePhrases(note string, patterns []*regexp.Regexp, set *termSet) {
	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(note, -1) {
			if len(match) < 2 {
				continue
			}
			captured := strings.ToLower(strings.TrimSpace(match[1]))
			set.add(cleanTerm(captured))
		}
	}
}

func captureKeywords(note string, keywords []keyword, set *termSet) {
	for _, kw := range keywords {
		if kw.re.MatchString(note) {
			set.add(kw.term)
		}
	}
}

func captureVitals(note string, set *termSet) {
	for _, pattern := range vitalPatterns {
		for _, match := range pattern.FindAllString(note, -1) {
			set.add("vital sign: " + strings.ToLower(match))
		}
	}
}

type termSet struct {
	members map[string]struct{}
}

func newTermSet() *termSet {
	return &termSet{members: make(map[string]struct{})}
}

func (s *termSet) add(term string) {
	if term == "" {
		return
	}
	s.members[term] = struct{}{}
}

func (s *termSet) values() []string {
	out := make([]string, 0, len(s.members))
	for term := range s.members {
		out = append(out, term)
	}
	return out
}

func (s *termSet) sorted() []string {
	out := s.values()
	sort.Strings(out)
	return out
}
