package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_ImplementsInterface(t *testing.T) {
	var _ ConsoleMetrics = &PrometheusMetrics{}
}

func TestNoopMetrics_ImplementsInterface(t *testing.T) {
	var _ ConsoleMetrics = &NoopMetrics{}
}

func TestPrometheusMetrics_WriteTo(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordWorkflow("orchestrate", OutcomeEmpty, 500*time.Millisecond)
	m.RecordWorkflow("execute", OutcomeSuccess, time.Second)
	m.RecordVerdict("PASS")
	m.SetInFlight(1)

	var b strings.Builder
	n, err := m.WriteTo(&b)
	require.NoError(t, err)
	out := b.String()
	assert.Equal(t, int64(len(out)), n)

	assert.Contains(t, out, "# TYPE testconsole_workflows_total counter\n")
	assert.Contains(t, out, `testconsole_workflows_total{action="execute",outcome="success"} 1`)
	assert.Contains(t, out, `testconsole_workflows_total{action="orchestrate",outcome="empty"} 1`)
	assert.Contains(t, out, `testconsole_workflow_seconds_total{action="orchestrate"} 0.5`)
	assert.Contains(t, out, `testconsole_verdicts_total{verdict="PASS"} 1`)
	assert.Contains(t, out, "testconsole_in_flight 1\n")

	assert.Less(t,
		strings.Index(out, `action="execute",outcome="success"`),
		strings.Index(out, `action="orchestrate",outcome="empty"`))
}

func TestPrometheusMetrics_Concurrent(t *testing.T) {
	m := NewPrometheusMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordWorkflow("generate", OutcomeSuccess, time.Millisecond)
			m.RecordVerdict("PASS")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.WorkflowCount("generate", OutcomeSuccess))
	assert.Equal(t, 20, m.VerdictCount("PASS"))
}
