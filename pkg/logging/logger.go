// Package logging provides structured logging for the test
// console: JSON lines for files, colored lines for terminals,
// and fan-out, redacting and discarding decorators.
package logging

// Logger is the structured logger used by every console
// component.
type Logger interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Debug is only emitted by verbose loggers.
	Debug(msg string, fields ...Field)

	// WithFields returns a Logger that attaches fields to every
	// subsequent entry.
	WithFields(fields ...Field) Logger

	// LogAPIRequest records an outbound backend request.
	LogAPIRequest(request APIRequestLog)

	// LogAPIResponse records the matching backend response or
	// transport failure.
	LogAPIResponse(response APIResponseLog)

	Close() error
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// LogField creates a Field from any value.
func LogField(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// StringField creates a Field with a string value.
func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

// IntField creates a Field with an integer value.
func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64Field creates a Field with an int64 value.
func Int64Field(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// BoolField creates a Field with a boolean value.
func BoolField(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates an "error" field. A nil error is logged as
// "<nil>".
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// APIRequestLog captures one backend request.
type APIRequestLog struct {
	Timestamp string            `json:"timestamp"`
	RequestID string            `json:"request_id"`
	Action    string            `json:"action,omitempty"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// APIResponseLog captures the outcome of one backend request.
// StatusCode is zero when the request failed in transport.
type APIResponseLog struct {
	Timestamp      string `json:"timestamp"`
	RequestID      string `json:"request_id"`
	Action         string `json:"action,omitempty"`
	StatusCode     int    `json:"status_code"`
	BodyPreview    string `json:"body_preview,omitempty"`
	BodyLength     int    `json:"body_length"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
}

// LogLevel is a logging severity.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a LogLevel. Unknown names map
// to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func mergeFields(base map[string]any, fields []Field) map[string]any {
	merged := make(map[string]any, len(base)+len(fields))
	for k, v := range base {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return merged
}
