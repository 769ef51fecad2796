package redaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact_Emails(t *testing.T) {
	redacted := RedactString("Contact me at john.doe@example.com or support@company.org")

	assert.NotContains(t, redacted, "john.doe@example.com")
	assert.NotContains(t, redacted, "support@company.org")
	assert.Contains(t, redacted, "[EMAIL_REDACTED]")
}

func TestRedact_Phones(t *testing.T) {
	redacted := RedactString("Call me at 555-123-4567 or +1 (800) 555-0123")

	assert.NotContains(t, redacted, "555-123-4567")
	assert.NotContains(t, redacted, "800")
	assert.Contains(t, redacted, "[PHONE_REDACTED]")
}

func TestRedact_SSNs(t *testing.T) {
	redacted := RedactString("SSN: 123-45-6789")

	assert.NotContains(t, redacted, "123-45-6789")
	assert.Contains(t, redacted, "[SSN_REDACTED]")
}

func TestRedact_CreditCards(t *testing.T) {
	redacted := RedactString("Card number: 4111111111111111")

	assert.NotContains(t, redacted, "4111111111111111")
	assert.Contains(t, redacted, "[CREDIT_CARD_REDACTED]")
}

func TestRedact_KeepsCVDetails(t *testing.T) {
	tests := []string{
		"This is a normal text without any personal information",
		"Acme Corp, 2019-2023, Senior Engineer",
		"Reduced p99 latency by 35% across 12 services",
	}
	for _, content := range tests {
		t.Run(content, func(t *testing.T) {
			assert.Equal(t, content, RedactString(content))
		})
	}
}

func TestRedactor_Count(t *testing.T) {
	content := []byte("a@b.io, c@d.io, 555-123-4567, 123-45-6789, 4111 1111 1111 1111")
	counts := NewRedactor().Count(content)

	assert.Equal(t, 2, counts[KindEmail])
	assert.Equal(t, 1, counts[KindPhone])
	assert.Equal(t, 1, counts[KindSSN])
	assert.Equal(t, 1, counts[KindCreditCard])
}
