// Package redact strips sensitive fragments from strings before they
// reach logs or error responses: connection strings, API keys and
// filesystem paths that tend to ride along inside wrapped errors.
package redact

import "regexp"

// Placeholders substituted for redacted fragments
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

var (
	// Connection strings with embedded credentials
	connStringRegex = regexp.MustCompile(`(?i)(postgres(ql)?|mysql|redis|amqp)://[^@\s]+@`)

	// API keys and tokens in key=value or key: value shapes
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|password|passwd)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Absolute filesystem paths
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)
)

// String redacts sensitive fragments from s.
func String(s string) string {
	if s == "" {
		return s
	}
	s = connStringRegex.ReplaceAllString(s, RedactedCredentialPlaceholder)
	s = apiKeyRegex.ReplaceAllString(s, "${1}${2}"+RedactedKeyPlaceholder)
	s = unixPathRegex.ReplaceAllString(s, RedactedPathPlaceholder)
	return s
}

// Error redacts err's message. A nil error yields an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
