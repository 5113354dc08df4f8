package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrgName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases and trims", "  Acme Corp  ", "acme corp"},
		{"replaces punctuation with spaces", "Acme, Corp. (Holdings)", "acme corp holdings"},
		{"collapses repeated separators", "Acme --  Corp", "acme corp"},
		{"strips diacritics", "Société Générale", "societe generale"},
		{"keeps digits", "Bank 24/7", "bank 24 7"},
		{"arabic text passes through", "شركة الاختبار", "شركة الاختبار"},
		{"empty input", "", ""},
		{"only punctuation", "!!! --- ...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OrgName(tt.input))
		})
	}
}

func TestOrgName_Idempotent(t *testing.T) {
	inputs := []string{
		"  Acme Corp  ",
		"Société Générale S.A.",
		"شركة الاختبار التجريبية",
		"BANK-24/7 (Main)",
		"",
	}

	for _, input := range inputs {
		once := OrgName(input)
		assert.Equal(t, once, OrgName(once), "normalizing %q twice must match once", input)
	}
}

func TestCompactKey(t *testing.T) {
	assert.Equal(t, "acmecorp", CompactKey("Acme Corp"))
	assert.Equal(t, "acmecorp", CompactKey("ACME-CORP"))
	assert.Equal(t, CompactKey("A c m e"), CompactKey("Acme"))
}

func TestShortCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"S N B-1", "SNB1"},
		{"snb", "SNB"},
		{"S.N.B.", "SNB"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ShortCode(tt.input))
	}

	// idempotent
	assert.Equal(t, ShortCode("S N B-1"), ShortCode(ShortCode("S N B-1")))
}

func TestApply(t *testing.T) {
	assert.Equal(t, "acme corp", Apply(" Acme Corp! ", "org_name"))
	assert.Equal(t, "unchanged", Apply("unchanged", "no_such_normalizer"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"acme", "corp"}, Tokens("acme corp"))
	assert.Empty(t, Tokens(""))
}
