package console

import (
	"fmt"

	"digital.vasic.testconsole/pkg/testcase"
)

// Toggle labels of a disclosure control.
const (
	LabelShowDetails = "Show Details"
	LabelHideDetails = "Hide Details"
)

// ItemKind distinguishes the entries of the test-case list.
type ItemKind string

const (
	// KindTestCase is a generated test case with an execute
	// control.
	KindTestCase ItemKind = "test_case"
	// KindOrchestrated is one entry of an orchestration batch.
	KindOrchestrated ItemKind = "orchestrated"
	// KindPlaceholder is a message standing in for an empty or
	// unusable list.
	KindPlaceholder ItemKind = "placeholder"
)

// Detail is one labelled line of an expanded item or report.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Item is one entry of the test-case list.
type Item struct {
	Kind     ItemKind                  `json:"kind"`
	Message  string                    `json:"message,omitempty"`
	TestCase *testcase.TestCase        `json:"test_case,omitempty"`
	Result   *testcase.ExecutionResult `json:"result,omitempty"`
	Report   *testcase.Report          `json:"report,omitempty"`
	Links    testcase.Artifacts        `json:"artifacts"`
	Expanded bool                      `json:"expanded"`
}

func placeholder(msg string) Item {
	return Item{Kind: KindPlaceholder, Message: msg}
}

// ID returns the test case id the item refers to.
func (it Item) ID() testcase.ID {
	switch {
	case it.TestCase != nil:
		return it.TestCase.ID
	case it.Report != nil:
		return it.Report.TestCaseID
	}
	return ""
}

// Toggleable reports whether the item has a details panel.
func (it Item) Toggleable() bool {
	return it.Kind != KindPlaceholder
}

// HasExecuteControl reports whether the item can be executed on
// its own. Only generated test cases can.
func (it Item) HasExecuteControl() bool {
	return it.Kind == KindTestCase
}

// ToggleLabel returns the label of the item's disclosure control,
// or "" for items without one.
func (it Item) ToggleLabel() string {
	if !it.Toggleable() {
		return ""
	}
	if it.Expanded {
		return LabelHideDetails
	}
	return LabelShowDetails
}

// Summary is the one-line text shown while collapsed.
func (it Item) Summary() string {
	switch it.Kind {
	case KindTestCase:
		s := fmt.Sprintf("Test Case %s: %s", it.TestCase.ID, it.TestCase.Objective.OrNA())
		if it.Result != nil {
			s += fmt.Sprintf(" - Last Result: %s (Verdict: %s)", it.Result.Status.OrNA(), it.Result.Verdict())
		}
		return s
	case KindOrchestrated:
		r := it.Report
		return fmt.Sprintf("Test Case %s: %s - Status: %s (Verdict: %s)",
			r.TestCaseID, r.Objective.OrNA(), r.Status.OrNA(), r.Verdict())
	default:
		return it.Message
	}
}

// Details returns the lines of the expanded panel.
func (it Item) Details() []Detail {
	switch it.Kind {
	case KindTestCase:
		tc := it.TestCase
		return []Detail{
			{"Initial State", tc.InitialState.OrNA()},
			{"Expected Actions", tc.ExpectedActions.OrNA()},
			{"Expected Results", tc.ExpectedResults.OrNA()},
		}
	case KindOrchestrated:
		r := it.Report
		return []Detail{
			{"Initial State", r.InitialState.OrNA()},
			{"Expected Actions", r.ExpectedActions.OrNA()},
			{"Expected Results", r.ExpectedResults.OrNA()},
			{"Reason", r.Reason()},
			{"Actual Log", r.ActualLog.OrNA()},
			{"Screenshot", it.Links.Screenshot},
			{"Log File", it.Links.Log},
		}
	}
	return nil
}

// ReportBlock is one entry of the report panel.
type ReportBlock struct {
	Report    testcase.Report    `json:"report"`
	Artifacts testcase.Artifacts `json:"artifacts"`
}

// Title returns the block heading.
func (b ReportBlock) Title() string {
	return fmt.Sprintf("Report for Test Case %s", b.Report.TestCaseID)
}

// Details returns the labelled report lines, artifacts excluded.
func (b ReportBlock) Details() []Detail {
	r := &b.Report
	return []Detail{
		{"Status", r.Status.OrNA()},
		{"Verdict", r.Verdict()},
		{"Reason", r.Reason()},
		{"Objective", r.Objective.OrNA()},
		{"Initial State", r.InitialState.OrNA()},
		{"Expected Actions", r.ExpectedActions.OrNA()},
		{"Expected Results", r.ExpectedResults.OrNA()},
		{"Actual Log", r.ActualLog.OrNA()},
	}
}

// Controls holds the enabled flags of the trigger controls.
// Execute covers the execute control of every test-case item.
type Controls struct {
	Generate    bool `json:"generate"`
	Orchestrate bool `json:"orchestrate"`
	Execute     bool `json:"execute"`
}

func enabledControls() Controls {
	return Controls{Generate: true, Orchestrate: true, Execute: true}
}

// Idle reports whether every control is enabled.
func (c Controls) Idle() bool {
	return c.Generate && c.Orchestrate && c.Execute
}

// ViewState is everything the operator sees: the status line, the
// test-case list, the cumulative report panel and the controls.
type ViewState struct {
	Status   string        `json:"status"`
	Items    []Item        `json:"items"`
	Reports  []ReportBlock `json:"reports"`
	Controls Controls      `json:"controls"`
}

// NewViewState returns the initial, idle state.
func NewViewState() ViewState {
	return ViewState{
		Items:    []Item{},
		Reports:  []ReportBlock{},
		Controls: enabledControls(),
	}
}

// Clone returns a copy that shares no slices with s. Records
// behind pointers are never mutated in place, so they are shared.
func (s ViewState) Clone() ViewState {
	out := s
	out.Items = append(make([]Item, 0, len(s.Items)), s.Items...)
	out.Reports = append(make([]ReportBlock, 0, len(s.Reports)), s.Reports...)
	return out
}

// ExecuteEnabled reports whether the execute control of item i is
// present and enabled.
func (s ViewState) ExecuteEnabled(i int) bool {
	return i >= 0 && i < len(s.Items) && s.Items[i].HasExecuteControl() && s.Controls.Execute
}

// ExecuteControls counts the execute controls in the list.
func (s ViewState) ExecuteControls() int {
	n := 0
	for _, it := range s.Items {
		if it.HasExecuteControl() {
			n++
		}
	}
	return n
}

// IndexOf returns the list position of the test-case item with id,
// or -1.
func (s ViewState) IndexOf(id testcase.ID) int {
	for i, it := range s.Items {
		if it.Kind == KindTestCase && it.TestCase.ID == id {
			return i
		}
	}
	return -1
}
