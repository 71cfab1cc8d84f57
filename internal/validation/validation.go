package validation

import (
	"strings"

	"github.com/donorlink/donorlink/internal/apperr"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// AsError converts accumulated violations into a single validation error,
// or nil when there are none.
func (v Violations) AsError() error {
	if v.Empty() {
		return nil
	}
	if len(v) == 1 {
		for field, code := range v {
			return apperr.Validation(field, code)
		}
	}
	return apperr.ValidationDetails(v)
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func IntRange(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_value"
}

// Email applies the single authoritative address heuristic: one @ with a
// non-empty local part, at least one dot after the @ with non-empty segments
// around it, and a minimum total length of 5.
func Email(field, value string, v Violations) {
	if !validEmail(value) {
		v[field] = "invalid_email"
	}
}

func validEmail(s string) bool {
	if len(s) < 5 {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return true
}
