package monitor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/metrics"
)

func TestEventCollector_Emit(t *testing.T) {
	c := NewEventCollector()

	var received []WorkflowEvent
	var mu sync.Mutex
	c.OnEvent(func(e WorkflowEvent) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	c.Emit(WorkflowEvent{Type: EventStarted, Action: console.ActionGenerate})

	mu.Lock()
	assert.Len(t, received, 1)
	assert.Equal(t, EventStarted, received[0].Type)
	assert.False(t, received[0].Timestamp.IsZero())
	mu.Unlock()
}

func TestEventCollector_Stats(t *testing.T) {
	c := NewEventCollector()
	c.Emit(WorkflowEvent{Type: EventStarted, Action: console.ActionGenerate})
	c.Emit(WorkflowEvent{Type: EventCompleted, Action: console.ActionGenerate})
	c.Emit(WorkflowEvent{Type: EventStarted, Action: console.ActionOrchestrate})
	c.Emit(WorkflowEvent{Type: EventEmpty, Action: console.ActionOrchestrate})
	c.Emit(WorkflowEvent{Type: EventStarted, Action: console.ActionExecute})
	c.Emit(WorkflowEvent{Type: EventFailed, Action: console.ActionExecute})

	stats := c.Stats()
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 3, stats.Started)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Empty)
	assert.Equal(t, 1, stats.Failed)
	assert.True(t, stats.Duration >= 0)
}

func TestEventCollector_Limit(t *testing.T) {
	c := NewEventCollector()
	c.limit = 3
	for i := 0; i < 5; i++ {
		c.Emit(WorkflowEvent{Type: EventToggled, Status: string(rune('a' + i))})
	}
	events := c.Events()
	assert.Len(t, events, 3)
	assert.Equal(t, "c", events[0].Status)
	assert.Equal(t, 5, c.Stats().Total)
}

func TestEventCollector_Reset(t *testing.T) {
	c := NewEventCollector()
	c.Emit(WorkflowEvent{Type: EventStarted})
	c.Reset()
	assert.Empty(t, c.Events())
	assert.Zero(t, c.Stats().Total)
}

func TestEventCollector_Concurrent(t *testing.T) {
	c := NewEventCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Emit(WorkflowEvent{Type: EventCompleted})
		}()
	}
	wg.Wait()
	assert.Len(t, c.Events(), 50)
	assert.Equal(t, 50, c.Stats().Completed)
}

func TestFromConsoleEvent(t *testing.T) {
	now := time.Now()
	state := console.NewViewState()
	state.Status = "status line"

	tests := []struct {
		name string
		ev   console.Event
		want EventType
	}{
		{
			name: "started",
			ev:   console.Event{Phase: console.PhaseStarted, Request: console.Request{Action: console.ActionGenerate}},
			want: EventStarted,
		},
		{
			name: "toggle",
			ev:   console.Event{Phase: console.PhaseFinished, Request: console.Request{Action: console.ActionToggle}},
			want: EventToggled,
		},
		{
			name: "failed",
			ev: console.Event{
				Phase: console.PhaseFinished, Request: console.Request{Action: console.ActionExecute, ID: "2"},
				Err: errors.New("HTTP error, status: 500"), Outcome: metrics.OutcomeFailure,
			},
			want: EventFailed,
		},
		{
			name: "empty",
			ev: console.Event{
				Phase: console.PhaseFinished, Request: console.Request{Action: console.ActionOrchestrate},
				Outcome: metrics.OutcomeEmpty,
			},
			want: EventEmpty,
		},
		{
			name: "completed",
			ev: console.Event{
				Phase: console.PhaseFinished, Request: console.Request{Action: console.ActionGenerate},
				Outcome: metrics.OutcomeSuccess,
			},
			want: EventCompleted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ev.State = state
			tt.ev.Timestamp = now
			got := FromConsoleEvent(tt.ev)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.ev.Request.Action, got.Action)
			assert.Equal(t, "status line", got.Status)
			assert.Equal(t, now, got.Timestamp)
		})
	}

	failed := FromConsoleEvent(tests[2].ev)
	assert.Equal(t, "HTTP error, status: 500", failed.Message)
}
