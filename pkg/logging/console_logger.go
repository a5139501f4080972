package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// ConsoleLogger writes human-readable lines, optionally colored.
type ConsoleLogger struct {
	mu      *sync.Mutex
	output  io.Writer
	verbose bool
	color   bool
	fields  map[string]any
}

// NewConsoleLogger creates a colored logger on stderr. Stdout is
// left to command output.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleWriterLogger(os.Stderr, verbose, true)
}

// NewConsoleWriterLogger creates a console logger on w.
func NewConsoleWriterLogger(w io.Writer, verbose, color bool) *ConsoleLogger {
	return &ConsoleLogger{
		mu:      &sync.Mutex{},
		output:  w,
		verbose: verbose,
		color:   color,
		fields:  map[string]any{},
	}
}

func (c *ConsoleLogger) paint(color, s string) string {
	if !c.color {
		return s
	}
	return color + s + colorReset
}

func (c *ConsoleLogger) log(level LogLevel, color, msg string, fields []Field) {
	all := mergeFields(c.fields, fields)

	var fieldStr string
	if len(all) > 0 {
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, all[k]))
		}
		fieldStr = " " + c.paint(colorGray, "{"+strings.Join(parts, ", ")+"}")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(
		c.output, "%s [%s] %s%s\n",
		c.paint(colorGray, time.Now().Format("15:04:05")),
		c.paint(color, fmt.Sprintf("%-5s", level.String())),
		msg, fieldStr,
	)
}

func (c *ConsoleLogger) Info(msg string, fields ...Field)  { c.log(LevelInfo, colorBlue, msg, fields) }
func (c *ConsoleLogger) Warn(msg string, fields ...Field)  { c.log(LevelWarn, colorYellow, msg, fields) }
func (c *ConsoleLogger) Error(msg string, fields ...Field) { c.log(LevelError, colorRed, msg, fields) }

// Debug logs only when verbose.
func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	if c.verbose {
		c.log(LevelDebug, colorGray, msg, fields)
	}
}

// WithFields returns a logger that prints fields on every line.
func (c *ConsoleLogger) WithFields(fields ...Field) Logger {
	return &ConsoleLogger{
		mu:      c.mu,
		output:  c.output,
		verbose: c.verbose,
		color:   c.color,
		fields:  mergeFields(c.fields, fields),
	}
}

// LogAPIRequest prints a one-line request summary at debug level.
func (c *ConsoleLogger) LogAPIRequest(request APIRequestLog) {
	c.Debug("API request",
		StringField("request_id", request.RequestID),
		StringField("method", request.Method),
		StringField("url", request.URL),
	)
}

// LogAPIResponse prints a one-line response summary at debug
// level, or a warning when the request failed in transport.
func (c *ConsoleLogger) LogAPIResponse(response APIResponseLog) {
	fields := []Field{
		StringField("request_id", response.RequestID),
		IntField("status", response.StatusCode),
		Int64Field("time_ms", response.ResponseTimeMs),
	}
	if response.Error != "" {
		c.Warn("API request failed", append(fields, StringField("error", response.Error))...)
		return
	}
	c.Debug("API response", fields...)
}

// Close is a no-op.
func (c *ConsoleLogger) Close() error { return nil }
