// Package testcase defines the records exchanged with the test
// generation and execution backend: generated test cases,
// execution results, reports and orchestration batches.
package testcase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NotAvailable is displayed in place of any missing text field.
const NotAvailable = "N/A"

// ID identifies a test case within one generation batch. The
// backend may send it as a JSON number or a JSON string; both
// decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON number, string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode test case id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode test case id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the textual id.
func (id ID) String() string { return string(id) }

// Text is free-form text produced by the backend. Generated test
// cases are not schema-checked server side, so a field may arrive
// as a string, a list of steps, or an arbitrary JSON value.
type Text string

// UnmarshalJSON flattens any JSON value into display text. Lists
// of scalars are joined with "; ", other composites keep their
// compact JSON form.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			switch v := item.(type) {
			case string:
				parts = append(parts, v)
			case nil:
			default:
				raw, err := json.Marshal(v)
				if err != nil {
					return fmt.Errorf("flatten text: %w", err)
				}
				parts = append(parts, string(raw))
			}
		}
		*t = Text(strings.Join(parts, "; "))
		return nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return fmt.Errorf("decode text: %w", err)
	}
	*t = Text(compact.String())
	return nil
}

// OrNA returns the text, or NotAvailable when it is empty.
func (t Text) OrNA() string {
	return orNA(string(t))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// firstText returns the first non-empty candidate.
func firstText(candidates ...Text) Text {
	for _, c := range candidates {
		if strings.TrimSpace(string(c)) != "" {
			return c
		}
	}
	return ""
}

// TestCase is a generated scenario awaiting execution.
type TestCase struct {
	ID              ID   `json:"id"`
	Objective       Text `json:"objective"`
	InitialState    Text `json:"initial_state"`
	ExpectedActions Text `json:"expected_actions"`
	ExpectedResults Text `json:"expected_results"`
}

// testCaseWire lists every field name a backend version has used
// for a test case.
type testCaseWire struct {
	ID               ID   `json:"id"`
	TestObjective    Text `json:"test_objective"`
	Objective        Text `json:"objective"`
	Title            Text `json:"title"`
	InitialGameState Text `json:"initial_game_state"`
	InitialState     Text `json:"initial_state"`
	ExpectedActions  Text `json:"expected_actions"`
	ExpectedResults  Text `json:"expected_results"`
}

// UnmarshalJSON resolves the objective from test_objective,
// objective or title and the initial state from
// initial_game_state or initial_state, first non-empty wins.
func (tc *TestCase) UnmarshalJSON(data []byte) error {
	var w testCaseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*tc = TestCase{
		ID:              w.ID,
		Objective:       firstText(w.TestObjective, w.Objective, w.Title),
		InitialState:    firstText(w.InitialGameState, w.InitialState),
		ExpectedActions: w.ExpectedActions,
		ExpectedResults: w.ExpectedResults,
	}
	return nil
}
