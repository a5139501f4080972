package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_RecordWorkflow(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordWorkflow("generate", OutcomeSuccess, 2*time.Second)
	m.RecordWorkflow("generate", OutcomeSuccess, 3*time.Second)
	m.RecordWorkflow("execute", OutcomeFailure, time.Second)

	assert.Equal(t, 2, m.WorkflowCount("generate", OutcomeSuccess))
	assert.Equal(t, 1, m.WorkflowCount("execute", OutcomeFailure))
	assert.Equal(t, 0, m.WorkflowCount("orchestrate", OutcomeSuccess))
	assert.Equal(t, 5*time.Second, m.durations["generate"])
}

func TestPrometheusMetrics_RecordVerdict(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordVerdict("PASS")
	m.RecordVerdict("PASS")
	m.RecordVerdict("N/A")

	assert.Equal(t, 2, m.VerdictCount("PASS"))
	assert.Equal(t, 1, m.VerdictCount("N/A"))
	assert.Equal(t, 0, m.VerdictCount("FAIL"))
}

func TestPrometheusMetrics_InFlight(t *testing.T) {
	m := NewPrometheusMetrics()
	m.SetInFlight(1)
	assert.Equal(t, 1, m.InFlight())
	m.SetInFlight(0)
	assert.Equal(t, 0, m.InFlight())
}

func TestNoopMetrics(t *testing.T) {
	m := &NoopMetrics{}
	// Should not panic
	m.RecordWorkflow("generate", OutcomeSuccess, time.Second)
	m.RecordVerdict("PASS")
	m.SetInFlight(0)
}
