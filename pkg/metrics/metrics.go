package metrics

import "time"

// Workflow outcomes passed to RecordWorkflow.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeInvalid  = "invalid"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// ConsoleMetrics defines the interface for recording console
// workflow metrics.
type ConsoleMetrics interface {
	// RecordWorkflow records one finished dispatch of an action.
	RecordWorkflow(action, outcome string, duration time.Duration)
	// RecordVerdict counts a verdict shown to the operator.
	RecordVerdict(verdict string)
	// SetInFlight sets the gauge of workflows awaiting the backend.
	SetInFlight(count int)
}

// NoopMetrics is a no-op implementation of ConsoleMetrics
// useful for testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordWorkflow(_, _ string, _ time.Duration) {}
func (NoopMetrics) RecordVerdict(_ string)                      {}
func (NoopMetrics) SetInFlight(_ int)                           {}
