// Package redact scrubs credentials from strings before they are logged or
// stored with a result.
package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(x-goog-api-key|api[_-]?key|gemini[_-]?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Google API keys passed as a query parameter, e.g. "...:generateContent?key=AIza...".
	keyParamRe = regexp.MustCompile(`([?&]key=)[^&\s"']+`)

	// Bare Google API keys.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = keyParamRe.ReplaceAllString(out, "${1}<redacted>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}
