package render

import (
	"fmt"
	"io"
	"sort"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/testcase"
)

// TextOptions controls plain-text output.
type TextOptions struct {
	// ExpandAll prints details of collapsed items too.
	ExpandAll bool
	// HideList omits the test-case list.
	HideList bool
}

// WriteText renders s as plain text.
func WriteText(w io.Writer, s console.ViewState, opts TextOptions) error {
	doc := NewDocument(s, opts.ExpandAll)
	ew := &errWriter{w: w}

	ew.printf("Status: %s\n", doc.Status)
	if !opts.HideList && len(doc.Items) > 0 {
		ew.printf("\nTest Cases:\n")
		for _, it := range doc.Items {
			ew.printf("  %s\n", it.Summary)
			for _, d := range it.Details {
				ew.printf("      %s: %s\n", d.Label, d.Value)
			}
		}
	}
	if doc.Summary != nil {
		ew.printf("\n")
		writeSummary(ew, *doc.Summary)
	}
	for _, r := range doc.Reports {
		ew.printf("\n")
		writeReport(ew, r)
	}
	return ew.err
}

// WriteReportText renders one report block.
func WriteReportText(w io.Writer, b console.ReportBlock) error {
	ew := &errWriter{w: w}
	writeReport(ew, ReportView{
		ID:        b.Report.TestCaseID,
		Title:     b.Title(),
		Details:   b.Details(),
		Artifacts: b.Artifacts,
	})
	return ew.err
}

// WriteSummaryText renders batch counts.
func WriteSummaryText(w io.Writer, s testcase.Summary) error {
	ew := &errWriter{w: w}
	writeSummary(ew, s)
	return ew.err
}

func writeReport(ew *errWriter, r ReportView) {
	ew.printf("%s\n", r.Title)
	for _, d := range r.Details {
		ew.printf("  %s: %s\n", d.Label, d.Value)
	}
	ew.printf("  Artifacts:\n")
	ew.printf("    Screenshot: %s\n", r.Artifacts.Screenshot)
	ew.printf("    Log: %s\n", r.Artifacts.Log)
}

func writeSummary(ew *errWriter, s testcase.Summary) {
	ew.printf("Summary: %d test cases\n", s.Total)
	for _, k := range sortedKeys(s.ByVerdict) {
		ew.printf("  Verdict %s: %d\n", k, s.ByVerdict[k])
	}
	for _, k := range sortedKeys(s.ByStatus) {
		ew.printf("  Status %s: %d\n", k, s.ByStatus[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
