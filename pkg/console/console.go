// Package console implements the test console: the view state of
// generated test cases, executed reports and orchestration
// results, and the workflows that move it between states by
// calling the backend.
//
// Every operator action is dispatched through one table keyed by
// Action. A workflow runs in three phases. begin and finish are
// pure functions over a ViewState snapshot, applied under the
// console lock; fetch talks to the backend with the lock released.
// begin disables every trigger control and finish enables them
// again, so at most one backend workflow is in flight.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"digital.vasic.testconsole/pkg/backend"
	"digital.vasic.testconsole/pkg/httpclient"
	"digital.vasic.testconsole/pkg/logging"
	"digital.vasic.testconsole/pkg/metrics"
	"digital.vasic.testconsole/pkg/testcase"
)

// Backend is the subset of backend.Client the console calls.
type Backend interface {
	GenerateTestCases(ctx context.Context) ([]testcase.TestCase, error)
	ExecuteTestCase(ctx context.Context, id testcase.ID) (*testcase.ExecutionResult, error)
	GetReport(ctx context.Context, id testcase.ID) (*testcase.Report, error)
	OrchestrateTests(ctx context.Context) (testcase.Batch, error)
	Artifacts(id testcase.ID) testcase.Artifacts
}

var _ Backend = (*backend.Client)(nil)

// Action names an operator command.
type Action string

const (
	ActionGenerate    Action = "generate"
	ActionExecute     Action = "execute"
	ActionOrchestrate Action = "orchestrate"
	ActionToggle      Action = "toggle"
)

// Actions lists every dispatchable action.
func Actions() []Action {
	return []Action{ActionGenerate, ActionExecute, ActionOrchestrate, ActionToggle}
}

// Request is one dispatched command. ID is used by execute, Index
// by toggle.
type Request struct {
	Action Action      `json:"action"`
	ID     testcase.ID `json:"id,omitempty"`
	Index  int         `json:"index,omitempty"`
}

// Phase tells whether an event opens or closes a workflow.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

// Event is published to subscribers after every state change.
type Event struct {
	Phase     Phase         `json:"phase"`
	Request   Request       `json:"request"`
	Outcome   string        `json:"outcome,omitempty"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	State     ViewState     `json:"state"`
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the workflow logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.ConsoleMetrics) Option {
	return func(c *Console) {
		if m != nil {
			c.metrics = m
		}
	}
}

// Console holds the view state and runs workflows against a
// backend. It is safe for concurrent use.
type Console struct {
	backend   Backend
	logger    logging.Logger
	metrics   metrics.ConsoleMetrics
	workflows map[Action]workflow

	mu       sync.Mutex
	state    ViewState
	inFlight int

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// New creates a console in the initial idle state.
func New(b Backend, opts ...Option) *Console {
	c := &Console{
		backend: b,
		logger:  logging.NullLogger{},
		metrics: metrics.NoopMetrics{},
		state:   NewViewState(),
		subs:    make(map[int]func(Event)),
	}
	for _, o := range opts {
		o(c)
	}
	c.workflows = c.dispatchTable()
	return c
}

// State returns a snapshot of the current view state.
func (c *Console) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn for every published event and returns a
// function removing it. fn runs on the dispatching goroutine and
// must not block.
func (c *Console) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Console) publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	c.subMu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Generate dispatches ActionGenerate.
func (c *Console) Generate(ctx context.Context) (ViewState, error) {
	return c.Dispatch(ctx, Request{Action: ActionGenerate})
}

// Execute dispatches ActionExecute for id.
func (c *Console) Execute(ctx context.Context, id testcase.ID) (ViewState, error) {
	return c.Dispatch(ctx, Request{Action: ActionExecute, ID: id})
}

// Orchestrate dispatches ActionOrchestrate.
func (c *Console) Orchestrate(ctx context.Context) (ViewState, error) {
	return c.Dispatch(ctx, Request{Action: ActionOrchestrate})
}

// Toggle dispatches ActionToggle for list position index.
func (c *Console) Toggle(index int) (ViewState, error) {
	return c.Dispatch(context.Background(), Request{Action: ActionToggle, Index: index})
}

// Dispatch runs the workflow bound to req.Action and returns the
// resulting state. Backend failures are already reflected in that
// state; the returned error only reports them to the caller. A
// rejected request (unknown action, disabled control, bad
// arguments) leaves the state untouched.
func (c *Console) Dispatch(ctx context.Context, req Request) (ViewState, error) {
	wf, ok := c.workflows[req.Action]
	if !ok {
		return c.State(), fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	log := c.logger.WithFields(requestFields(req)...)
	start := time.Now()

	c.mu.Lock()
	if err := wf.accept(c.state, req); err != nil {
		snap := c.state.Clone()
		c.mu.Unlock()
		log.Warn("action rejected", logging.ErrorField(err))
		c.metrics.RecordWorkflow(string(req.Action), metrics.OutcomeRejected, 0)
		return snap, err
	}
	c.state = wf.begin(c.state.Clone(), req)
	snap := c.state.Clone()
	if wf.fetch != nil {
		c.inFlight++
		c.metrics.SetInFlight(c.inFlight)
	}
	c.mu.Unlock()

	if wf.fetch == nil {
		log.Debug("view state changed")
		c.metrics.RecordWorkflow(string(req.Action), metrics.OutcomeSuccess, time.Since(start))
		c.publish(Event{Phase: PhaseFinished, Request: req, Outcome: metrics.OutcomeSuccess, State: snap})
		return snap, nil
	}

	log.Info("workflow started")
	c.publish(Event{Phase: PhaseStarted, Request: req, State: snap})

	fctx := httpclient.WithAction(ctx, string(req.Action))
	res, err := wf.fetch(fctx, req)

	c.mu.Lock()
	c.state = wf.finish(c.state.Clone(), req, res, err)
	snap = c.state.Clone()
	c.inFlight--
	c.metrics.SetInFlight(c.inFlight)
	c.mu.Unlock()

	elapsed := time.Since(start)
	outcome := classify(res, err)
	c.metrics.RecordWorkflow(string(req.Action), outcome, elapsed)
	for _, v := range res.verdicts() {
		c.metrics.RecordVerdict(v)
	}

	fields := []logging.Field{
		logging.StringField("outcome", outcome),
		logging.Int64Field("duration_ms", elapsed.Milliseconds()),
		logging.StringField("status", snap.Status),
	}
	var se *StepError
	if errors.As(err, &se) {
		fields = append(fields, logging.StringField("step", string(se.Step)))
	}
	if err != nil {
		log.Error("workflow failed", append(fields, logging.ErrorField(err))...)
	} else {
		log.Info("workflow finished", fields...)
	}

	c.publish(Event{
		Phase:    PhaseFinished,
		Request:  req,
		Outcome:  outcome,
		Err:      err,
		Duration: elapsed,
		State:    snap,
	})
	return snap, err
}

func requestFields(req Request) []logging.Field {
	fields := []logging.Field{logging.StringField("action", string(req.Action))}
	switch req.Action {
	case ActionExecute:
		fields = append(fields, logging.StringField("test_case_id", req.ID.String()))
	case ActionToggle:
		fields = append(fields, logging.IntField("index", req.Index))
	}
	return fields
}

func classify(res fetched, err error) string {
	var shape *backend.ShapeError
	switch {
	case errors.As(err, &shape):
		return metrics.OutcomeInvalid
	case err != nil:
		return metrics.OutcomeFailure
	case res.empty():
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeSuccess
	}
}
