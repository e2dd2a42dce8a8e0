package github

import (
	"encoding/json"
	"fmt"

	"github.com/visionpr/reviewer/internal/adapter/httpx"
)

// MapAPIError converts a GitHub error response into a typed httpx.Error,
// pulling the message out of the standard error envelope when present.
func MapAPIError(statusCode int, body []byte) *httpx.Error {
	var envelope apiError
	message := ""
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	} else {
		message = httpx.TruncateForLogging(string(body))
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}
	return httpx.MapStatusError(serviceName, statusCode, message)
}
