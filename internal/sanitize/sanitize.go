// Package sanitize redacts secret-shaped substrings from free text
// before it reaches storage. Newsletter bodies occasionally quote API
// keys or OAuth material verbatim; none of it belongs in the emails table.
package sanitize

import (
	"regexp"
)

const placeholder = "[REDACTED]"

// Ordered: the specific token shapes run before the generic
// key=value pattern so the value match cannot swallow a longer token.
var secretPatterns = []*regexp.Regexp{
	// Bearer tokens in quoted headers
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]{16,}=*`),
	// OpenAI / Stripe style keys
	regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{16,}\b`),
	// AWS access key IDs
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	// Google OAuth refresh tokens
	regexp.MustCompile(`\b1//[A-Za-z0-9_\-]{20,}\b`),
	// key=value / key: value credential pairs
	regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|access[_-]?token|refresh[_-]?token)\b\s*[:=]\s*\S+`),
	// Long bare hex blobs (session ids, HMACs)
	regexp.MustCompile(`\b[0-9a-fA-F]{40,}\b`),
}

// Redact replaces recognizable secret-shaped substrings with a placeholder
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, placeholder)
	}
	return s
}
