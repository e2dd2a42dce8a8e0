package httpx

import (
	"fmt"
	"regexp"
)

// MaxLoggedBodyLength is the maximum length of a payload excerpt included in
// logs. Review text and diffs routinely contain source code; logs must not.
const MaxLoggedBodyLength = 200

// TruncateForLogging returns a log-safe excerpt of a payload: the first
// MaxLoggedBodyLength characters plus a truncation indicator.
func TruncateForLogging(body string) string {
	if len(body) <= MaxLoggedBodyLength {
		return body
	}
	return body[:MaxLoggedBodyLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(body))
}

var secretParamRE = regexp.MustCompile(`(?i)(key|apiKey|api_key|token|access_token)=[^&"\s]+`)

// RedactURLSecrets redacts API keys and tokens carried in URL query
// parameters, so URLs appearing in error messages never leak credentials.
//
//	input:  "https://api.example.com/endpoint?key=secret123&foo=bar"
//	output: "https://api.example.com/endpoint?key=[REDACTED]&foo=bar"
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	return secretParamRE.ReplaceAllString(text, "$1=[REDACTED]")
}

// RedactAPIKey shows only the last 4 characters of an API key.
func RedactAPIKey(key string) string {
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}
