package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.testconsole/pkg/runner"
	"digital.vasic.testconsole/pkg/testcase"
)

func sampleResults() []runner.Result {
	return []runner.Result{
		{
			ID:       "1",
			Status:   "completed",
			Verdict:  "PASS",
			Duration: 1200 * time.Millisecond,
			Report: &testcase.Report{
				TestCaseID: "1",
				Objective:  "open | close menu",
				Analysis:   &testcase.Analysis{Verdict: "PASS", Reason: "menu toggled"},
			},
		},
		{
			ID:       "2",
			Status:   testcase.NotAvailable,
			Verdict:  testcase.NotAvailable,
			Error:    "Error executing Test Case 2: HTTP error, status: 500.",
			Duration: 300 * time.Millisecond,
		},
	}
}

func TestBuildRunSummary(t *testing.T) {
	s := BuildRunSummary(sampleResults(), "http://backend")

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Executed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1500*time.Millisecond, s.TotalDuration)
	assert.Equal(t, map[string]int{"PASS": 1, testcase.NotAvailable: 1}, s.ByVerdict)
	assert.Contains(t, s.ID, "run_")

	require.Len(t, s.TestCases, 2)
	assert.Equal(t, "open | close menu", s.TestCases[0].Objective)
	assert.Equal(t, "menu toggled", s.TestCases[0].Reason)
	assert.Equal(t, testcase.NotAvailable, s.TestCases[1].Objective)
	assert.Equal(t, testcase.NotAvailable, s.TestCases[1].Reason)
}

func TestBuildRunSummary_Empty(t *testing.T) {
	s := BuildRunSummary(nil, "")
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.TestCases)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(BuildRunSummary(sampleResults(), "http://backend"))

	assert.Contains(t, md, "# Test Run Summary")
	assert.Contains(t, md, "**Backend:** http://backend")
	assert.Contains(t, md, `| 1 | open \| close menu | completed | PASS | 1.2s |`)
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "- **Test Case 2:** Error executing Test Case 2: HTTP error, status: 500.")
	assert.Contains(t, md, "| Verdict PASS | 1 |")
	assert.Contains(t, md, "| Failed | 1 |")
}

func TestMarkdown_NoFailures(t *testing.T) {
	md := Markdown(BuildRunSummary(sampleResults()[:1], ""))
	assert.NotContains(t, md, "## Failures")
	assert.NotContains(t, md, "**Backend:**")
}

func TestSaveRunSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	s := BuildRunSummary(sampleResults(), "http://backend")

	paths, err := SaveRunSummary(s, dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var decoded RunSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.ID, decoded.ID)
	assert.Equal(t, 2, decoded.Total)

	md, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Test Run Summary")

	latest, err := os.ReadFile(filepath.Join(dir, "latest_run.md"))
	require.NoError(t, err)
	assert.Equal(t, md, latest)
}
