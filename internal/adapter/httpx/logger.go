package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger provides structured logging for outbound API calls and for the
// pipeline around them.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted).
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing info.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error.
	LogError(ctx context.Context, err ErrorLog)

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})

	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Service   string
	Method    string
	Target    string // URL path or model name, never a full URL with secrets
	Timestamp time.Time
	BodyChars int
	APIKey    string // redacted before writing
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Service    string
	Target     string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Service    string
	Target     string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// ParseLogLevel maps a config string onto a LogLevel. Unknown values mean
// info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseLogFormat maps a config string onto a LogFormat. Unknown values mean
// human.
func ParseLogFormat(s string) LogFormat {
	if strings.ToLower(s) == "json" {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// DefaultLogger writes structured logs via the standard log package.
type DefaultLogger struct {
	level      LogLevel
	format     LogFormat
	redactKeys bool
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{
		level:      level,
		format:     format,
		redactKeys: redactKeys,
	}
}

// LogRequest logs an API request at debug level.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	key := req.APIKey
	if l.redactKeys {
		key = RedactAPIKey(key)
	}
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","service":"%s","method":"%s","target":"%s","timestamp":"%s","body_chars":%d,"api_key":"%s"}`,
			req.Service, req.Method, req.Target, req.Timestamp.Format(time.RFC3339), req.BodyChars, key)
	} else {
		log.Printf("[DEBUG] %s: %s %s (body=%d chars, key=%s)",
			req.Service, req.Method, req.Target, req.BodyChars, key)
	}
}

// LogResponse logs an API response at info level.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","service":"%s","target":"%s","timestamp":"%s","duration_ms":%d,"status_code":%d}`,
			resp.Service, resp.Target, resp.Timestamp.Format(time.RFC3339), resp.Duration.Milliseconds(), resp.StatusCode)
	} else {
		log.Printf("[INFO] %s: %s responded %d (duration=%.1fs)",
			resp.Service, resp.Target, resp.StatusCode, resp.Duration.Seconds())
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, e ErrorLog) {
	retryable := "non-retryable"
	if e.Retryable {
		retryable = "retryable"
	}
	msg := RedactURLSecrets(e.Error.Error())
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","service":"%s","target":"%s","timestamp":"%s","duration_ms":%d,"error":%q,"status_code":%d,"retryable":%t}`,
			e.Service, e.Target, e.Timestamp.Format(time.RFC3339), e.Duration.Milliseconds(), msg, e.StatusCode, e.Retryable)
	} else {
		log.Printf("[ERROR] %s: %s failed (status=%d, %s): %s",
			e.Service, e.Target, e.StatusCode, retryable, msg)
	}
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logStructured("info", "[INFO]", message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logStructured("warning", "[WARN]", message, fields)
}

func (l *DefaultLogger) logStructured(level, prefix, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		payload := map[string]interface{}{"level": level, "message": message}
		for k, v := range fields {
			payload[k] = v
		}
		if b, err := json.Marshal(payload); err == nil {
			log.Print(string(b))
			return
		}
	}
	log.Printf("%s %s%s", prefix, message, formatFields(fields))
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, fields[k])
	}
	b.WriteString(")")
	return b.String()
}
