package logging

import (
	"log/slog"
	"regexp"
)

var (
	// the Anthropic pattern must run first; the OpenAI one would match its prefix
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	bearerPattern       = regexp.MustCompile(`(?i)bearer [a-zA-Z0-9._\-]+`)

	// password inside a DSN
	dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
)

// SanitizeError returns err's message with API keys, bearer tokens and DSN
// passwords masked. Provider and database errors go through it before
// being logged.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}

// Err is the slog attribute for a sanitized error.
func Err(err error) slog.Attr {
	return slog.String("error", SanitizeError(err))
}
