package monitor

import (
	"sync"
	"time"

	"digital.vasic.testconsole/pkg/console"
)

// EventCollector captures workflow events and timing data.
type EventCollector struct {
	mu       sync.RWMutex
	events   []WorkflowEvent
	handlers []func(WorkflowEvent)
	stats    CollectorStats
	limit    int
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Total     int           `json:"total"`
	Started   int           `json:"started"`
	Completed int           `json:"completed"`
	Empty     int           `json:"empty"`
	Failed    int           `json:"failed"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// DefaultEventLimit bounds the events kept by a collector.
const DefaultEventLimit = 1000

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]WorkflowEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
		limit:  DefaultEventLimit,
	}
}

// Attach records every event published by c until the returned
// function is called.
func (c *EventCollector) Attach(con *console.Console) (detach func()) {
	return con.Subscribe(func(ev console.Event) {
		c.Emit(FromConsoleEvent(ev))
	})
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(WorkflowEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers. The oldest
// events are dropped past the collector limit; stats keep
// counting.
func (c *EventCollector) Emit(event WorkflowEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	if len(c.events) > c.limit {
		c.events = append(c.events[:0], c.events[len(c.events)-c.limit:]...)
	}
	c.stats.Total++
	switch event.Type {
	case EventStarted:
		c.stats.Started++
	case EventCompleted:
		c.stats.Completed++
	case EventEmpty:
		c.stats.Empty++
	case EventFailed:
		c.stats.Failed++
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(WorkflowEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []WorkflowEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]WorkflowEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
