package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// PrometheusMetrics implements ConsoleMetrics with in-memory
// counters and exposes them in the Prometheus text format.
type PrometheusMetrics struct {
	mu        sync.Mutex
	workflows map[workflowKey]int
	durations map[string]time.Duration
	verdicts  map[string]int
	inFlight  int
}

type workflowKey struct {
	action  string
	outcome string
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		workflows: make(map[workflowKey]int),
		durations: make(map[string]time.Duration),
		verdicts:  make(map[string]int),
	}
}

func (m *PrometheusMetrics) RecordWorkflow(action, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[workflowKey{action, outcome}]++
	m.durations[action] += duration
}

func (m *PrometheusMetrics) RecordVerdict(verdict string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[verdict]++
}

func (m *PrometheusMetrics) SetInFlight(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = count
}

// WorkflowCount returns the count for an action+outcome pair.
func (m *PrometheusMetrics) WorkflowCount(action, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workflows[workflowKey{action, outcome}]
}

// VerdictCount returns how often verdict was recorded.
func (m *PrometheusMetrics) VerdictCount(verdict string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verdicts[verdict]
}

// InFlight returns the current in-flight gauge.
func (m *PrometheusMetrics) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// WriteTo writes all series in the Prometheus text exposition
// format, sorted by label values.
func (m *PrometheusMetrics) WriteTo(w io.Writer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder

	b.WriteString("# HELP testconsole_workflows_total Finished console workflows.\n")
	b.WriteString("# TYPE testconsole_workflows_total counter\n")
	keys := make([]workflowKey, 0, len(m.workflows))
	for k := range m.workflows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].action != keys[j].action {
			return keys[i].action < keys[j].action
		}
		return keys[i].outcome < keys[j].outcome
	})
	for _, k := range keys {
		fmt.Fprintf(&b, "testconsole_workflows_total{action=%q,outcome=%q} %d\n",
			k.action, k.outcome, m.workflows[k])
	}

	b.WriteString("# HELP testconsole_workflow_seconds_total Time spent in console workflows.\n")
	b.WriteString("# TYPE testconsole_workflow_seconds_total counter\n")
	for _, action := range sortedKeys(m.durations) {
		fmt.Fprintf(&b, "testconsole_workflow_seconds_total{action=%q} %g\n",
			action, m.durations[action].Seconds())
	}

	b.WriteString("# HELP testconsole_verdicts_total Verdicts reported by the backend.\n")
	b.WriteString("# TYPE testconsole_verdicts_total counter\n")
	for _, verdict := range sortedKeys(m.verdicts) {
		fmt.Fprintf(&b, "testconsole_verdicts_total{verdict=%q} %d\n", verdict, m.verdicts[verdict])
	}

	b.WriteString("# HELP testconsole_in_flight Workflows waiting on the backend.\n")
	b.WriteString("# TYPE testconsole_in_flight gauge\n")
	fmt.Fprintf(&b, "testconsole_in_flight %d\n", m.inFlight)

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
