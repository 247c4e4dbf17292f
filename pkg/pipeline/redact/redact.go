package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|resend[_-]?api[_-]?key|aws[_-]?secret[_-]?access[_-]?key|secret[_-]?access[_-]?key|session[_-]?token)\b\s*[:=]\s*[^\s"']+`)

	// AWS access key IDs (long-term AKIA and temporary ASIA).
	awsAccessKeyIDRe = regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`)

	// SigV4 credential scopes echoed back in signature mismatch errors.
	sigV4CredentialRe = regexp.MustCompile(`Credential=[^\s,"']+`)

	// Resend API keys.
	resendKeyRe = regexp.MustCompile(`\bre_[A-Za-z0-9_]{16,}\b`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = sigV4CredentialRe.ReplaceAllString(out, "Credential=<redacted>")
	out = awsAccessKeyIDRe.ReplaceAllString(out, "<redacted_access_key>")
	out = resendKeyRe.ReplaceAllString(out, "<redacted_api_key>")
	return strings.TrimSpace(out)
}
