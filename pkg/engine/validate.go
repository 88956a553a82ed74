package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aurevtech/coder/pkg/common/models"
)

const minNoteLength = 10

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidationError carries the field-level messages for a structurally invalid
// request. Validation blocks processing entirely.
type ValidationError struct {
	Errors []models.ProcessingError
}

func (e ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, pe := range e.Errors {
		msgs = append(msgs, pe.Message)
	}
	return strings.Join(msgs, "; ")
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Validate checks the request structurally. It applies no clinical semantics.
func Validate(req models.CodingRequest) []models.ProcessingError {
	var errs []models.ProcessingError
	add := func(msg string) {
		errs = append(errs, models.ProcessingError{Code: models.ErrInputValidation, Message: msg})
	}

	switch req.Mode {
	case "", models.ModeAnalyze, models.ModeExplain:
	default:
		add(fmt.Sprintf("Mode must be %s or %s", models.ModeAnalyze, models.ModeExplain))
	}

	if req.Patient.Age < 0 {
		add("Patient age must be a non-negative integer")
	}
	switch req.Patient.Sex {
	case "F", "M", "U":
	default:
		add("Patient sex must be F, M, or U")
	}

	if req.Encounter.Date == "" {
		add("Missing encounter field: date")
	} else if !datePattern.MatchString(req.Encounter.Date) {
		add("Encounter date must use YYYY-MM-DD format")
	}
	if strings.TrimSpace(req.Encounter.POSCode) == "" {
		add("Missing encounter field: pos_code")
	}
	if strings.TrimSpace(req.Encounter.Payer) == "" {
		add("Missing encounter field: payer")
	}
	if strings.TrimSpace(req.Encounter.ProviderType) == "" {
		add("Missing encounter field: provider_type")
	}

	if len(strings.TrimSpace(req.ClinicalNote)) < minNoteLength {
		add(fmt.Sprintf("Clinical note must contain at least %d characters", minNoteLength))
	}

	return errs
}
