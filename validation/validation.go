// Package validation collects field violations for request payloads.
package validation

import (
	"slices"
	"strings"

	"github.com/diewo77/ca-practice/internal/apperr"
)

const (
	codeRequired = "required"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) fields() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, k := range v.fields() {
		parts = append(parts, k+": "+v[k])
	}
	return strings.Join(parts, ", ")
}

// Err converts the violations into a classified error, or nil when empty.
// Missing fields take precedence over format problems.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	fields := v.fields()
	for _, f := range fields {
		if v[f] == codeRequired {
			e := apperr.MissingField(f)
			e.Err = v
			return e
		}
	}
	f := fields[0]
	return &apperr.Error{Kind: apperr.KindInvalidFormat, Field: f, Message: v[f], Err: v}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = codeRequired
	}
}

// RequiredFunc flags field when present reports false.
func RequiredFunc(field string, present bool, v Violations) {
	if !present {
		v[field] = codeRequired
	}
}

// OneOf accepts an empty value (defaults apply later) or one of allowed.
func OneOf[T ~string](field string, value T, allowed []T, v Violations) {
	if value == "" || slices.Contains(allowed, value) {
		return
	}
	v[field] = "must be one of " + joinValues(allowed)
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func joinValues[T ~string](vals []T) string {
	s := make([]string, len(vals))
	for i, x := range vals {
		s[i] = string(x)
	}
	return strings.Join(s, ", ")
}
