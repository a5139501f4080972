package logging

import "strings"

// RedactingLogger masks secrets, such as the backend API token,
// in messages, string fields, URLs and sensitive headers before
// delegating to the inner logger.
type RedactingLogger struct {
	inner   Logger
	secrets []string
}

// NewRedactingLogger ignores secrets of four characters or less.
func NewRedactingLogger(inner Logger, secrets ...string) *RedactingLogger {
	kept := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if len(s) > 4 {
			kept = append(kept, s)
		}
	}
	return &RedactingLogger{inner: inner, secrets: kept}
}

func (r *RedactingLogger) redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, maskSecret(secret))
	}
	return s
}

// maskSecret keeps the first four characters.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func (r *RedactingLogger) redactFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		if s, ok := f.Value.(string); ok {
			f.Value = r.redact(s)
		}
		out[i] = f
	}
	return out
}

func (r *RedactingLogger) Info(msg string, fields ...Field) {
	r.inner.Info(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) Warn(msg string, fields ...Field) {
	r.inner.Warn(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) Error(msg string, fields ...Field) {
	r.inner.Error(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) Debug(msg string, fields ...Field) {
	r.inner.Debug(r.redact(msg), r.redactFields(fields)...)
}

func (r *RedactingLogger) WithFields(fields ...Field) Logger {
	return &RedactingLogger{
		inner:   r.inner.WithFields(r.redactFields(fields)...),
		secrets: r.secrets,
	}
}

func (r *RedactingLogger) LogAPIRequest(request APIRequestLog) {
	request.URL = r.redact(request.URL)
	request.Headers = redactHeaders(request.Headers)
	r.inner.LogAPIRequest(request)
}

func (r *RedactingLogger) LogAPIResponse(response APIResponseLog) {
	response.BodyPreview = r.redact(response.BodyPreview)
	response.Error = r.redact(response.Error)
	r.inner.LogAPIResponse(response)
}

func (r *RedactingLogger) Close() error {
	return r.inner.Close()
}

var sensitiveHeaders = map[string]bool{
	"authorization":  true,
	"x-api-key":      true,
	"api-key":        true,
	"x-auth-token":   true,
	"x-access-token": true,
}

func redactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			out[k] = "****"
		} else {
			out[k] = v
		}
	}
	return out
}
