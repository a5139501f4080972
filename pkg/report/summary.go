// Package report writes run summaries of sequential executions as
// JSON and Markdown files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"digital.vasic.testconsole/pkg/runner"
	"digital.vasic.testconsole/pkg/testcase"
)

// RunSummary aggregates the results of one run.
type RunSummary struct {
	ID            string            `json:"id"`
	GeneratedAt   time.Time         `json:"generated_at"`
	BackendURL    string            `json:"backend_url"`
	TestCases     []TestCaseSummary `json:"test_cases"`
	Total         int               `json:"total"`
	Executed      int               `json:"executed"`
	Failed        int               `json:"failed"`
	ByVerdict     map[string]int    `json:"by_verdict"`
	TotalDuration time.Duration     `json:"total_duration"`
}

// TestCaseSummary is one row of a RunSummary.
type TestCaseSummary struct {
	ID        testcase.ID   `json:"id"`
	Objective string        `json:"objective"`
	Status    string        `json:"status"`
	Verdict   string        `json:"verdict"`
	Reason    string        `json:"reason"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// BuildRunSummary summarizes results of a run against backendURL.
func BuildRunSummary(results []runner.Result, backendURL string) *RunSummary {
	now := time.Now()
	s := &RunSummary{
		ID:          fmt.Sprintf("run_%s", now.Format("20060102_150405")),
		GeneratedAt: now,
		BackendURL:  backendURL,
		TestCases:   make([]TestCaseSummary, 0, len(results)),
		ByVerdict:   runner.Summarize(results).ByVerdict,
	}

	for _, r := range results {
		tc := TestCaseSummary{
			ID:        r.ID,
			Objective: testcase.NotAvailable,
			Status:    r.Status,
			Verdict:   r.Verdict,
			Reason:    testcase.NotAvailable,
			Error:     r.Error,
			Duration:  r.Duration,
		}
		if r.Report != nil {
			tc.Objective = r.Report.Objective.OrNA()
			tc.Reason = r.Report.Reason()
		}

		s.TestCases = append(s.TestCases, tc)
		s.Total++
		s.TotalDuration += r.Duration
		if r.Failed() {
			s.Failed++
		} else {
			s.Executed++
		}
	}
	return s
}

// SaveRunSummary writes the summary as JSON and Markdown into
// outputDir and points latest_run.json and latest_run.md at them.
// It returns the paths written.
func SaveRunSummary(summary *RunSummary, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath := filepath.Join(outputDir, summary.ID+".json")
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write JSON summary: %w", err)
	}

	mdPath := filepath.Join(outputDir, summary.ID+".md")
	if err := os.WriteFile(mdPath, []byte(Markdown(summary)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown summary: %w", err)
	}

	latestJSON := filepath.Join(outputDir, "latest_run.json")
	latestMD := filepath.Join(outputDir, "latest_run.md")
	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return []string{jsonPath, mdPath}, nil
}

// Markdown renders the summary as a Markdown document.
func Markdown(summary *RunSummary) string {
	var sb strings.Builder

	sb.WriteString("# Test Run Summary\n\n")
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", summary.ID)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", summary.GeneratedAt.Format(time.RFC3339))
	if summary.BackendURL != "" {
		fmt.Fprintf(&sb, "**Backend:** %s\n\n", summary.BackendURL)
	}

	sb.WriteString("## Test Cases\n\n")
	sb.WriteString("| Test Case | Objective | Status | Verdict | Duration |\n")
	sb.WriteString("|-----------|-----------|--------|---------|----------|\n")
	for _, tc := range summary.TestCases {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %v |\n",
			tc.ID, cell(tc.Objective), cell(tc.Status), cell(tc.Verdict), tc.Duration.Round(time.Millisecond))
	}

	var failures []TestCaseSummary
	for _, tc := range summary.TestCases {
		if tc.Error != "" {
			failures = append(failures, tc)
		}
	}
	if len(failures) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, tc := range failures {
			fmt.Fprintf(&sb, "- **Test Case %s:** %s\n", tc.ID, tc.Error)
		}
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Total | %d |\n", summary.Total)
	fmt.Fprintf(&sb, "| Executed | %d |\n", summary.Executed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", summary.Failed)
	for _, v := range sortedVerdicts(summary.ByVerdict) {
		fmt.Fprintf(&sb, "| Verdict %s | %d |\n", cell(v), summary.ByVerdict[v])
	}
	fmt.Fprintf(&sb, "| Total Duration | %v |\n", summary.TotalDuration.Round(time.Millisecond))

	return sb.String()
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func sortedVerdicts(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
