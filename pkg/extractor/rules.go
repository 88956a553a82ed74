package extractor

import (
	"regexp"
	"strings"
)

// Abbreviation expansion applied before any pattern matching. Whole-word,
// case-insensitive.
var abbreviations = []struct {
	re        *regexp.Regexp
	expansion string
}{
	{regexp.MustCompile(`(?i)\bpt\b`), "patient"},
	{regexp.MustCompile(`(?i)\bc/o\b`), "complains of"},
	{regexp.MustCompile(`(?i)\bs/p\b`), "status post"},
	{regexp.MustCompile(`(?i)\bw/o\b`), "without"},
	{regexp.MustCompile(`(?i)\bw/`), "with"},
	{regexp.MustCompile(`(?i)\bhx\b`), "history"},
	{regexp.MustCompile(`(?i)\bfhx\b`), "family history"},
	{regexp.MustCompile(`(?i)\bpmh\b`), "past medical history"},
	{regexp.MustCompile(`(?i)\brx\b`), "prescription"},
	{regexp.MustCompile(`(?i)\bdx\b`), "diagnosis"},
	{regexp.MustCompile(`(?i)\btx\b`), "treatment"},
}

// Phrase-trigger patterns per fact category. Each captures free text up to the
// next sentence boundary. Ordered; over-generation across rules is intended.
var (
	problemPatterns = compilePatterns(
		`chief complaint[:\s]+([^\.]+)`,
		`complains? of[:\s]+([^\.]+)`,
		`presents with[:\s]+([^\.]+)`,
		`symptoms? include[:\s]+([^\.]+)`,
		`patient (?:has|reports|endorses)[:\s]+([^\.]+)`,
		`history of[:\s]+([^\.]+)`,
	)

	findingPatterns = compilePatterns(
		`(?:physical exam|examination)[:\s]*([^\.]+)`,
		`(?:vital signs?|vs)[:\s]*([^\.]+)`,
		`(?:normal|abnormal|unremarkable)[:\s]+([^\.]+)`,
		`(?:auscultation|palpation|inspection)[:\s]*([^\.]+)`,
		`(?:heart rate|blood pressure|temperature|bp|hr|temp)[:\s]*([^\.]+)`,
	)

	orderPatterns = compilePatterns(
		`order(?:ed)?[:\s]+([^\.]+)`,
		`plan[:\s]+([^\.]+)`,
		`(?:will|to) obtain[:\s]+([^\.]+)`,
		`(?:will|to) perform[:\s]+([^\.]+)`,
		`recommended[:\s]+([^\.]+)`,
		`prescribed[:\s]+([^\.]+)`,
	)

	procedurePatterns = compilePatterns(
		`performed[:\s]+([^\.]+)`,
		`procedure[:\s]*[:]?[:\s]*([^\.]+)`,
		`(?:did|completed)[:\s]+([^\.]+)`,
		`administered[:\s]+([^\.]+)`,
		`given[:\s]+([^\.]+)`,
	)

	resultPatterns = compilePatterns(
		`results?[:\s]+([^\.]+)`,
		`findings?[:\s]+([^\.]+)`,
		`shows?[:\s]+([^\.]+)`,
		`reveals?[:\s]+([^\.]+)`,
		`impression[:\s]+([^\.]+)`,
	)

	vitalPatterns = compilePatterns(
		`bp[:\s]*(\d+/\d+)`,
		`blood pressure[:\s]*(\d+/\d+)`,
		`heart rate[:\s]*(\d+)`,
		`hr[:\s]*(\d+)`,
		`temperature[:\s]*(\d+\.?\d*)`,
		`temp[:\s]*(\d+\.?\d*)`,
	)
)

// Keyword scans run independently of the phrase patterns; a hit adds the
// keyword itself as a fact.
var (
	symptomKeywords = compileKeywords(
		"pain", "ache", "discomfort", "soreness",
		"fever", "chills", "nausea", "vomiting",
		"headache", "dizziness", "fatigue",
		"shortness of breath", "dyspnea", "sob",
		"palpitations", "chest pain",
		"cough", "congestion", "runny nose",
		"abdominal pain", "stomach pain",
		"joint pain", "muscle pain",
		"rash", "swelling", "inflammation",
		"laceration", "wound",
	)

	testKeywords = compileKeywords(
		"ecg", "ekg", "electrocardiogram",
		"chest x-ray", "chest xray", "cxr",
		"blood work", "labs", "laboratory",
		"cbc", "complete blood count",
		"metabolic panel", "basic metabolic",
		"urinalysis", "urine test",
	)

	procedureKeywords = compileKeywords(
		"injection", "immunization", "vaccination",
		"suture", "repair", "wound care",
		"blood draw", "venipuncture",
		"ecg obtained", "ekg performed",
	)
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[^\w\s\-/]`)
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

type keyword struct {
	term string
	re   *regexp.Regexp
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

func compileKeywords(terms ...string) []keyword {
	compiled := make([]keyword, 0, len(terms))
	for _, term := range terms {
		compiled = append(compiled, keyword{
			term: term,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}
	return compiled
}

// cleanTerm strips punctuation, collapses whitespace, and drops stop words.
func cleanTerm(term string) string {
	term = punctuationRe.ReplaceAllString(term, " ")
	term = strings.TrimSpace(whitespaceRe.ReplaceAllString(term, " "))

	words := strings.Fields(term)
	filtered := words[:0:0]
	for _, word := range words {
		if _, stop := stopWords[strings.ToLower(word)]; !stop {
			filtered = append(filtered, word)
		}
	}
	if len(filtered) == 0 {
		return term
	}
	return strings.Join(filtered, " ")
}
