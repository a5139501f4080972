package monitor

import (
	"sync"
	"time"

	"digital.vasic.testconsole/pkg/console"
)

// DashboardData provides a live summary of console activity.
type DashboardData struct {
	mu        sync.RWMutex
	RunID     string                           `json:"run_id"`
	StartTime time.Time                        `json:"start_time"`
	Status    string                           `json:"status"` // idle, running
	Workflows map[console.Action]WorkflowState `json:"workflows"`
	Verdicts  map[string]int                   `json:"verdicts"`
	Summary   DashboardSummary                 `json:"summary"`
}

// WorkflowState aggregates the runs of one action.
type WorkflowState struct {
	Action       console.Action `json:"action"`
	Status       string         `json:"status"`
	Runs         int            `json:"runs"`
	Failures     int            `json:"failures"`
	LastStart    *time.Time     `json:"last_start,omitempty"`
	LastEnd      *time.Time     `json:"last_end,omitempty"`
	LastDuration time.Duration  `json:"last_duration,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Runs        int     `json:"runs"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	Running     int     `json:"running"`
	SuccessRate float64 `json:"success_rate"`
	Elapsed     string  `json:"elapsed"`
}

// NewDashboardData creates a new dashboard data instance.
func NewDashboardData(runID string) *DashboardData {
	return &DashboardData{
		RunID:     runID,
		StartTime: time.Now(),
		Status:    "idle",
		Workflows: make(map[console.Action]WorkflowState),
		Verdicts:  make(map[string]int),
	}
}

// UpdateFromEvent updates dashboard state from a workflow event.
// Toggles do not count as runs.
func (d *DashboardData) UpdateFromEvent(event WorkflowEvent) {
	if event.Type == EventToggled {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	state, exists := d.Workflows[event.Action]
	if !exists {
		state = WorkflowState{Action: event.Action}
	}

	switch event.Type {
	case EventStarted:
		state.Status = "running"
		state.LastStart = &now
		state.Runs++
	case EventCompleted, EventEmpty:
		state.Status = string(event.Type)
		state.LastEnd = &now
		state.LastDuration = event.Duration
		state.Message = event.Status
		for _, v := range event.Verdicts {
			d.Verdicts[v]++
		}
	case EventFailed:
		state.Status = "failed"
		state.LastEnd = &now
		state.LastDuration = event.Duration
		state.Failures++
		state.Message = event.Message
	}

	d.Workflows[event.Action] = state
	d.recalcSummary()
}

func (d *DashboardData) recalcSummary() {
	s := DashboardSummary{}
	for _, wf := range d.Workflows {
		s.Runs += wf.Runs
		s.Failed += wf.Failures
		if wf.Status == "running" {
			s.Running++
		}
	}
	s.Succeeded = s.Runs - s.Failed - s.Running
	if done := s.Succeeded + s.Failed; done > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(done) * 100
	}
	s.Elapsed = time.Since(d.StartTime).Round(time.Millisecond).String()
	d.Summary = s
	d.Status = "idle"
	if s.Running > 0 {
		d.Status = "running"
	}
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() DashboardData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	workflows := make(map[console.Action]WorkflowState, len(d.Workflows))
	for k, v := range d.Workflows {
		workflows[k] = v
	}
	verdicts := make(map[string]int, len(d.Verdicts))
	for k, v := range d.Verdicts {
		verdicts[k] = v
	}
	return DashboardData{
		RunID:     d.RunID,
		StartTime: d.StartTime,
		Status:    d.Status,
		Workflows: workflows,
		Verdicts:  verdicts,
		Summary:   d.Summary,
	}
}

// BuildDashboardData creates a DashboardData snapshot from an
// EventCollector by replaying all collected events.
func BuildDashboardData(
	collector *EventCollector,
	runID string,
) *DashboardData {
	data := NewDashboardData(runID)
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
