// Package normalizers canonicalizes raw organization-name strings into
// the comparable keys every matching component shares.
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value.
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("org_name", OrgName)
	Register("compact", CompactKey)
	Register("short_code", ShortCode)
	Register("lowercase", strings.ToLower)
	Register("trim", strings.TrimSpace)
}

// Register adds a normalizer to the registry.
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Apply applies a named normalizer to a value.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// stripDiacritics decomposes to NFD, drops combining marks, recomposes.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// OrgName canonicalizes an organization name: lowercase, diacritics
// stripped, punctuation and symbols replaced by spaces, whitespace
// collapsed and trimmed. Idempotent: OrgName(OrgName(x)) == OrgName(x).
func OrgName(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripDiacritics, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true // leading separators are dropped
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			// punctuation, symbols and whitespace all separate tokens
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// CompactKey is the space-insensitive variant of OrgName, used for exact
// key lookups where spacing differences should not matter.
func CompactKey(s string) string {
	return strings.ReplaceAll(OrgName(s), " ", "")
}

// ShortCode derives the upper-case alphanumeric short-code token used by
// the bank registry ("S N B-1" -> "SNB1"). Idempotent.
func ShortCode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Tokens splits a normalized name into its whitespace-separated tokens.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
