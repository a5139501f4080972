// Package render turns console view states into text, HTML and
// JSON for the CLI, the web console and API clients.
package render

import (
	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/testcase"
)

// Document is the display form of a ViewState: every label and
// summary line resolved, N/A fallbacks applied.
type Document struct {
	Status   string            `json:"status"`
	Controls console.Controls  `json:"controls"`
	Items    []ItemView        `json:"items"`
	Reports  []ReportView      `json:"reports"`
	Summary  *testcase.Summary `json:"summary,omitempty"`
}

// ItemView is one rendered list entry.
type ItemView struct {
	Index       int              `json:"index"`
	Kind        console.ItemKind `json:"kind"`
	ID          testcase.ID      `json:"id,omitempty"`
	Summary     string           `json:"summary"`
	ToggleLabel string           `json:"toggle_label,omitempty"`
	Expanded    bool             `json:"expanded"`
	Executable  bool             `json:"executable"`
	Details     []console.Detail `json:"details,omitempty"`
}

// ReportView is one rendered report block.
type ReportView struct {
	ID        testcase.ID        `json:"id"`
	Title     string             `json:"title"`
	Details   []console.Detail   `json:"details"`
	Artifacts testcase.Artifacts `json:"artifacts"`
}

// NewDocument resolves s for display. Collapsed items carry no
// details unless expandAll is set.
func NewDocument(s console.ViewState, expandAll bool) Document {
	doc := Document{
		Status:   s.Status,
		Controls: s.Controls,
		Items:    make([]ItemView, 0, len(s.Items)),
		Reports:  make([]ReportView, 0, len(s.Reports)),
	}
	for i, it := range s.Items {
		v := ItemView{
			Index:       i,
			Kind:        it.Kind,
			ID:          it.ID(),
			Summary:     it.Summary(),
			ToggleLabel: it.ToggleLabel(),
			Expanded:    it.Expanded,
			Executable:  s.ExecuteEnabled(i),
		}
		if it.Expanded || expandAll {
			v.Details = it.Details()
		}
		doc.Items = append(doc.Items, v)
	}
	for _, b := range s.Reports {
		doc.Reports = append(doc.Reports, ReportView{
			ID:        b.Report.TestCaseID,
			Title:     b.Title(),
			Details:   b.Details(),
			Artifacts: b.Artifacts,
		})
	}
	if batch := Batch(s); batch.Len() > 0 {
		summary := batch.Summarize()
		doc.Summary = &summary
	}
	return doc
}

// Batch collects the orchestrated entries of s.
func Batch(s console.ViewState) testcase.Batch {
	var reports []testcase.Report
	for _, it := range s.Items {
		if it.Kind == console.KindOrchestrated {
			reports = append(reports, *it.Report)
		}
	}
	return testcase.Batch{Reports: reports}
}
