package codes

import (
	"regexp"
	"strings"

	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
)

// DefaultCodePattern accepts alphanumerics plus hyphen, five characters up.
const DefaultCodePattern = `^[a-zA-Z0-9-]{5,}$`

// Validator applies the configured format rule to raw code strings. It is
// pure and never consults storage; duplicate checks belong to the pipeline.
type Validator struct {
	pattern *regexp.Regexp
}

// NewValidator compiles the configured pattern, falling back to the default
// when empty.
func NewValidator(pattern string) (*Validator, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultCodePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "compiling code pattern")
	}
	return &Validator{pattern: re}, nil
}

// Normalize trims surrounding whitespace. Duplicate comparisons always use
// the normalized form; case is preserved.
func (v *Validator) Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// Valid reports whether the normalized code matches the configured format.
func (v *Validator) Valid(raw string) bool {
	return v.pattern.MatchString(v.Normalize(raw))
}
