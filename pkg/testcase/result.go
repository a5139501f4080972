package testcase

import "encoding/json"

// Analysis is the server-assigned judgement of one execution.
type Analysis struct {
	Verdict Text `json:"verdict"`
	Reason  Text `json:"reason"`
}

// ExecutionResult is the response to executing one test case.
// Status is opaque to the console beyond display.
type ExecutionResult struct {
	TestCaseID ID        `json:"test_case_id,omitempty"`
	Status     Text      `json:"status"`
	Analysis   *Analysis `json:"analysis,omitempty"`
}

// Verdict returns the analysis verdict, or NotAvailable when the
// backend sent no analysis.
func (r *ExecutionResult) Verdict() string {
	if r == nil || r.Analysis == nil {
		return NotAvailable
	}
	return r.Analysis.Verdict.OrNA()
}

// Report is the full record of a test case definition plus its
// execution outcome. The same shape is returned by the report
// endpoint and as an entry of an orchestration batch.
type Report struct {
	TestCaseID      ID        `json:"test_case_id"`
	Status          Text      `json:"status"`
	Analysis        *Analysis `json:"analysis,omitempty"`
	Objective       Text      `json:"objective"`
	InitialState    Text      `json:"initial_state"`
	ExpectedActions Text      `json:"expected_actions"`
	ExpectedResults Text      `json:"expected_results"`
	ActualLog       Text      `json:"actual_log"`
}

type reportWire struct {
	TestCaseID       ID        `json:"test_case_id"`
	Status           Text      `json:"status"`
	Analysis         *Analysis `json:"analysis"`
	TestObjective    Text      `json:"test_objective"`
	Objective        Text      `json:"objective"`
	Title            Text      `json:"title"`
	InitialGameState Text      `json:"initial_game_state"`
	InitialState     Text      `json:"initial_state"`
	ExpectedActions  Text      `json:"expected_actions"`
	ExpectedResults  Text      `json:"expected_results"`
	ActualLog        Text      `json:"actual_log"`
}

// UnmarshalJSON applies the same field aliases as TestCase.
func (r *Report) UnmarshalJSON(data []byte) error {
	var w reportWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Report{
		TestCaseID:      w.TestCaseID,
		Status:          w.Status,
		Analysis:        w.Analysis,
		Objective:       firstText(w.Objective, w.TestObjective, w.Title),
		InitialState:    firstText(w.InitialState, w.InitialGameState),
		ExpectedActions: w.ExpectedActions,
		ExpectedResults: w.ExpectedResults,
		ActualLog:       w.ActualLog,
	}
	return nil
}

// Verdict returns the analysis verdict or NotAvailable.
func (r *Report) Verdict() string {
	if r == nil || r.Analysis == nil {
		return NotAvailable
	}
	return r.Analysis.Verdict.OrNA()
}

// Reason returns the analysis reason or NotAvailable.
func (r *Report) Reason() string {
	if r == nil || r.Analysis == nil {
		return NotAvailable
	}
	return r.Analysis.Reason.OrNA()
}

// Batch is the ordered result of one orchestration call. It only
// lives for the duration of a single response.
type Batch struct {
	Reports []Report `json:"results"`
}

// Len returns the number of reports in the batch.
func (b Batch) Len() int { return len(b.Reports) }

// Summary counts a batch by verdict.
type Summary struct {
	Total     int            `json:"total"`
	ByVerdict map[string]int `json:"by_verdict"`
	ByStatus  map[string]int `json:"by_status"`
}

// Summarize tallies the batch. Missing verdicts and statuses are
// counted under NotAvailable.
func (b Batch) Summarize() Summary {
	s := Summary{
		Total:     len(b.Reports),
		ByVerdict: make(map[string]int),
		ByStatus:  make(map[string]int),
	}
	for i := range b.Reports {
		r := &b.Reports[i]
		s.ByVerdict[r.Verdict()]++
		s.ByStatus[r.Status.OrNA()]++
	}
	return s
}
