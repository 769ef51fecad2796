// Package redaction masks personal data in documents before they are
// written to disk. The interview itself works on the unredacted text.
package redaction

import (
	"regexp"
)

// Kind names a category of personal data
type Kind string

const (
	KindEmail      Kind = "email"
	KindSSN        Kind = "ssn"
	KindCreditCard Kind = "credit_card"
	KindPhone      Kind = "phone"
)

type rule struct {
	kind        Kind
	re          *regexp.Regexp
	placeholder string
}

// Redactor replaces personal data with placeholders
type Redactor struct {
	rules []rule
}

// NewRedactor creates a redactor. Rules run in order: card numbers are
// masked before phones so long digit runs are not split into phone numbers,
// and phones need a separator so year ranges like 2019-2023 survive.
func NewRedactor() *Redactor {
	return &Redactor{rules: []rule{
		{KindEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "[EMAIL_REDACTED]"},
		{KindSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN_REDACTED]"},
		{KindCreditCard, regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`), "[CREDIT_CARD_REDACTED]"},
		{KindPhone, regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?(?:\(\d{2,4}\)|\b\d{2,4})[\s.-]\d{3}[\s.-]?\d{3,4}\b`), "[PHONE_REDACTED]"},
	}}
}

// Redact returns content with every match replaced
func (r *Redactor) Redact(content []byte) []byte {
	for _, rl := range r.rules {
		content = rl.re.ReplaceAll(content, []byte(rl.placeholder))
	}
	return content
}

// RedactString is Redact for strings
func (r *Redactor) RedactString(content string) string {
	return string(r.Redact([]byte(content)))
}

// Count reports how many items of each kind Redact would replace
func (r *Redactor) Count(content []byte) map[Kind]int {
	counts := make(map[Kind]int, len(r.rules))
	for _, rl := range r.rules {
		matches := rl.re.FindAllIndex(content, -1)
		counts[rl.kind] = len(matches)
		content = rl.re.ReplaceAll(content, []byte(rl.placeholder))
	}
	return counts
}

// DefaultRedactor is the default PII redactor instance
var DefaultRedactor = NewRedactor()

// Redact uses the default redactor
func Redact(content []byte) []byte {
	return DefaultRedactor.Redact(content)
}

// RedactString uses the default redactor
func RedactString(content string) string {
	return DefaultRedactor.RedactString(content)
}
