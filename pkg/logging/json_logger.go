package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogEntry is one JSON line written by JSONLogger.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LoggerConfig configures a JSONLogger. Empty paths fall back to
// stdout for the main log and disable the API logs.
type LoggerConfig struct {
	OutputPath     string
	APIRequestLog  string
	APIResponseLog string
	Level          LogLevel
	Verbose        bool
	Fields         map[string]any
}

// sink is shared by a JSONLogger and every logger derived from it
// through WithFields.
type sink struct {
	mu        sync.Mutex
	output    io.Writer
	requests  io.Writer
	responses io.Writer
	closed    bool
}

// JSONLogger writes JSON Lines.
type JSONLogger struct {
	sink    *sink
	level   LogLevel
	verbose bool
	fields  map[string]any
}

// NewJSONLogger opens the configured destinations.
func NewJSONLogger(config LoggerConfig) (*JSONLogger, error) {
	s := &sink{output: os.Stdout}

	if config.OutputPath != "" {
		f, err := openAppend(config.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		s.output = f
	}
	if config.APIRequestLog != "" {
		f, err := openAppend(config.APIRequestLog)
		if err != nil {
			return nil, fmt.Errorf("open API request log: %w", err)
		}
		s.requests = f
	}
	if config.APIResponseLog != "" {
		f, err := openAppend(config.APIResponseLog)
		if err != nil {
			return nil, fmt.Errorf("open API response log: %w", err)
		}
		s.responses = f
	}

	return &JSONLogger{
		sink:    s,
		level:   config.Level,
		verbose: config.Verbose,
		fields:  mergeFields(config.Fields, nil),
	}, nil
}

// NewJSONWriterLogger writes entries to w. It is used where the
// caller owns the destination.
func NewJSONWriterLogger(w io.Writer, level LogLevel) *JSONLogger {
	return &JSONLogger{
		sink:    &sink{output: w},
		level:   level,
		verbose: level == LevelDebug,
		fields:  map[string]any{},
	}
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (l *JSONLogger) log(level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    mergeFields(l.fields, fields),
	}
	l.sink.writeJSON(l.sink.output, entry)
}

func (s *sink) writeJSON(w io.Writer, v any) {
	if w == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fmt.Fprintln(w, string(data))
}

func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

// Debug logs only when the logger is verbose.
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	if l.verbose {
		l.log(LevelDebug, msg, fields)
	}
}

// WithFields returns a logger sharing the same destinations.
func (l *JSONLogger) WithFields(fields ...Field) Logger {
	return &JSONLogger{
		sink:    l.sink,
		level:   l.level,
		verbose: l.verbose,
		fields:  mergeFields(l.fields, fields),
	}
}

// LogAPIRequest appends the request to the request log, if any.
func (l *JSONLogger) LogAPIRequest(request APIRequestLog) {
	l.sink.writeJSON(l.sink.requests, request)
}

// LogAPIResponse appends the response to the response log, if
// any.
func (l *JSONLogger) LogAPIResponse(response APIResponseLog) {
	l.sink.writeJSON(l.sink.responses, response)
}

// Close closes every file the logger opened. Loggers derived via
// WithFields share the files and stop writing as well.
func (l *JSONLogger) Close() error {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, w := range []io.Writer{s.output, s.requests, s.responses} {
		if w == nil || w == os.Stdout || w == os.Stderr {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetupLogging creates a JSONLogger writing console.log,
// api_requests.log and api_responses.log under logsDir.
func SetupLogging(logsDir string, verbose bool) (*JSONLogger, error) {
	config := LoggerConfig{
		OutputPath:     filepath.Join(logsDir, "console.log"),
		APIRequestLog:  filepath.Join(logsDir, "api_requests.log"),
		APIResponseLog: filepath.Join(logsDir, "api_responses.log"),
		Level:          LevelInfo,
		Verbose:        verbose,
	}
	if verbose {
		config.Level = LevelDebug
	}
	return NewJSONLogger(config)
}
