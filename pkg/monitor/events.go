package monitor

import (
	"time"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/metrics"
	"digital.vasic.testconsole/pkg/testcase"
)

// EventType represents the type of workflow event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventEmpty     EventType = "empty"
	EventFailed    EventType = "failed"
	EventToggled   EventType = "toggled"
)

// WorkflowEvent represents a lifecycle event of a console
// workflow.
type WorkflowEvent struct {
	Type       EventType      `json:"type"`
	Action     console.Action `json:"action"`
	TestCaseID testcase.ID    `json:"test_case_id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Message    string         `json:"message,omitempty"`
	Verdicts   []string       `json:"verdicts,omitempty"`
	Duration   time.Duration  `json:"duration,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// FromConsoleEvent converts a console event. Status is the
// console status line after the change.
func FromConsoleEvent(ev console.Event) WorkflowEvent {
	out := WorkflowEvent{
		Action:     ev.Request.Action,
		TestCaseID: ev.Request.ID,
		Status:     ev.State.Status,
		Duration:   ev.Duration,
		Timestamp:  ev.Timestamp,
	}
	switch {
	case ev.Phase == console.PhaseStarted:
		out.Type = EventStarted
	case ev.Request.Action == console.ActionToggle:
		out.Type = EventToggled
	case ev.Err != nil:
		out.Type = EventFailed
		out.Message = ev.Err.Error()
	case ev.Outcome == metrics.OutcomeEmpty:
		out.Type = EventEmpty
	default:
		out.Type = EventCompleted
		out.Verdicts = verdicts(ev)
	}
	return out
}

// verdicts lists what a finished workflow reported: the new report
// block of an execution or every entry of an orchestration.
func verdicts(ev console.Event) []string {
	s := ev.State
	switch ev.Request.Action {
	case console.ActionExecute:
		if n := len(s.Reports); n > 0 {
			return []string{s.Reports[n-1].Report.Verdict()}
		}
	case console.ActionOrchestrate:
		var out []string
		for _, it := range s.Items {
			if it.Kind == console.KindOrchestrated {
				out = append(out, it.Report.Verdict())
			}
		}
		return out
	}
	return nil
}
