package ingest

import (
	"errors"
	"fmt"
)

// Error taxonomy for the ingestion pipeline. Handlers translate these to
// HTTP statuses; everything else surfaces as an internal error.
var (
	// ErrNotFound covers missing projects, files, and configurations.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers malformed configurations and bad request input.
	ErrValidation = errors.New("validation failed")
)

// NotFoundf wraps ErrNotFound with a formatted description.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted description.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ValidateConfiguration checks a configuration before it is persisted. All
// problems are reported at once so a client can fix them in one round trip.
func ValidateConfiguration(cfg Configuration) error {
	var problems []string

	if len(cfg.Mappings) == 0 {
		problems = append(problems, "configuration has no column mappings")
	}

	hasSource := false
	for i, m := range cfg.Mappings {
		if m.ColumnIndex < 0 {
			problems = append(problems, fmt.Sprintf("mapping %d: negative column index %d", i, m.ColumnIndex))
		}
		if !ValidRole(m.Role) {
			problems = append(problems, fmt.Sprintf("mapping %d: unknown role %q", i, m.Role))
		}
		if m.Role == RoleSource {
			hasSource = true
		}
	}
	if len(cfg.Mappings) > 0 && !hasSource {
		problems = append(problems, "configuration has no source column mapping")
	}

	if len(problems) > 0 {
		return Validationf("%s", joinProblems(problems))
	}
	return nil
}

func joinProblems(problems []string) string {
	out := problems[0]
	for _, p := range problems[1:] {
		out += "; " + p
	}
	return out
}
