package validator

import (
	"regexp"
	"strings"
)

// FieldError is a single validation failure surfaced to API callers.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) First() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Message
}

func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func IsValidSlug(slug string) bool {
	if len(slug) < 3 || len(slug) > 50 {
		return false
	}
	return slugPattern.MatchString(slug)
}

func IsValidEmail(email string) bool {
	if len(email) > 255 {
		return false
	}
	return emailPattern.MatchString(strings.TrimSpace(email))
}
