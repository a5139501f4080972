package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitNonEmpty(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestSetupLogging_WritesFiles(t *testing.T) {
	dir := t.TempDir()

	logger, err := SetupLogging(dir, true)
	require.NoError(t, err)

	logger.Info("generate started", StringField("action", "generate"))
	logger.Debug("verbose detail")
	logger.LogAPIRequest(APIRequestLog{RequestID: "r1", Method: "GET", URL: "http://b/generate_test_cases"})
	logger.LogAPIResponse(APIResponseLog{RequestID: "r1", StatusCode: 200})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "console.log"))
	require.NoError(t, err)
	lines := splitNonEmpty(string(data))
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "generate started", entry.Message)
	assert.Equal(t, "generate", entry.Fields["action"])

	reqData, err := os.ReadFile(filepath.Join(dir, "api_requests.log"))
	require.NoError(t, err)
	var req APIRequestLog
	require.NoError(t, json.Unmarshal([]byte(splitNonEmpty(string(reqData))[0]), &req))
	assert.Equal(t, "r1", req.RequestID)

	respData, err := os.ReadFile(filepath.Join(dir, "api_responses.log"))
	require.NoError(t, err)
	assert.Contains(t, string(respData), `"status_code":200`)
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriterLogger(&buf, LevelWarn)

	logger.Debug("no")
	logger.Info("no")
	logger.Warn("yes")
	logger.Error("yes")

	assert.Len(t, splitNonEmpty(buf.String()), 2)
}

func TestJSONLogger_WithFieldsSharesSink(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriterLogger(&buf, LevelInfo)

	child := logger.WithFields(StringField("test_case_id", "3"))
	child.Info("executing")
	logger.Info("plain")

	lines := splitNonEmpty(buf.String())
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"test_case_id":"3"`)
	assert.NotContains(t, lines[1], "test_case_id")

	require.NoError(t, logger.Close())
	child.Info("after close")
	assert.Len(t, splitNonEmpty(buf.String()), 2)
}

func TestJSONLogger_APILogsDisabledByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriterLogger(&buf, LevelInfo)
	logger.LogAPIRequest(APIRequestLog{RequestID: "r"})
	logger.LogAPIResponse(APIResponseLog{RequestID: "r"})
	assert.Empty(t, buf.String())
}

func TestJSONLogger_CloseTwice(t *testing.T) {
	logger, err := SetupLogging(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}
