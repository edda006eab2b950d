// Package validation holds the form-field validators shared by the
// contact form and the questionnaire.
package validation

import (
	"net/url"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidURL reports whether s parses as an absolute URL.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ValidLinkedInURL reports whether s is a LinkedIn profile URL. Empty is
// accepted: the field is optional everywhere it appears.
func ValidLinkedInURL(s string) bool {
	if s == "" {
		return true
	}
	return ValidURL(s) && strings.Contains(s, "linkedin.com")
}

// Required reports whether a string value is present after trimming.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// RequiredSlice reports whether a selection has at least one entry.
func RequiredSlice[T any](vs []T) bool {
	return len(vs) > 0
}

// SelectionCount reports whether a multi-select has between min and max
// entries inclusive.
func SelectionCount[T any](vs []T, min, max int) bool {
	return len(vs) >= min && len(vs) <= max
}

// FieldErrors maps field keys to human-readable problems.
type FieldErrors map[string]string

// Add records a problem for a field; the first problem per field wins.
func (f FieldErrors) Add(key, msg string) {
	if _, ok := f[key]; !ok {
		f[key] = msg
	}
}

// Ok reports whether no problems were recorded.
func (f FieldErrors) Ok() bool { return len(f) == 0 }
