package console

import (
	"context"
	"errors"
	"fmt"

	"digital.vasic.testconsole/pkg/backend"
	"digital.vasic.testconsole/pkg/testcase"
)

// workflow binds one action to its phases. accept validates the
// request against the current state. begin and finish derive the
// next state. A nil fetch marks a local action completed by begin.
type workflow struct {
	accept func(ViewState, Request) error
	begin  func(ViewState, Request) ViewState
	fetch  func(context.Context, Request) (fetched, error)
	finish func(ViewState, Request, fetched, error) ViewState
}

// fetched carries whatever a workflow's fetch phase received.
type fetched struct {
	cases     []testcase.TestCase
	execution *ExecutionOutcome
	batch     testcase.Batch
	artifacts map[testcase.ID]testcase.Artifacts
	kind      Action
}

func (f fetched) empty() bool {
	switch f.kind {
	case ActionGenerate:
		return len(f.cases) == 0
	case ActionOrchestrate:
		return f.batch.Len() == 0
	}
	return false
}

func (f fetched) verdicts() []string {
	switch {
	case f.execution != nil:
		return []string{f.execution.Result.Verdict()}
	case f.kind == ActionOrchestrate:
		out := make([]string, 0, f.batch.Len())
		for i := range f.batch.Reports {
			out = append(out, f.batch.Reports[i].Verdict())
		}
		return out
	}
	return nil
}

func (c *Console) dispatchTable() map[Action]workflow {
	return map[Action]workflow{
		ActionGenerate: {
			accept: requireControl(func(ct Controls) bool { return ct.Generate }),
			begin:  beginGenerate,
			fetch:  c.fetchGenerate,
			finish: finishGenerate,
		},
		ActionExecute: {
			accept: acceptExecute,
			begin:  beginExecute,
			fetch:  c.fetchExecute,
			finish: finishExecute,
		},
		ActionOrchestrate: {
			accept: requireControl(func(ct Controls) bool { return ct.Orchestrate }),
			begin:  beginOrchestrate,
			fetch:  c.fetchOrchestrate,
			finish: finishOrchestrate,
		},
		ActionToggle: {
			accept: acceptToggle,
			begin:  applyToggle,
		},
	}
}

func requireControl(enabled func(Controls) bool) func(ViewState, Request) error {
	return func(s ViewState, _ Request) error {
		if !enabled(s.Controls) {
			return ErrControlDisabled
		}
		return nil
	}
}

func disableControls(s ViewState) ViewState {
	s.Controls = Controls{}
	return s
}

// Generate

func beginGenerate(s ViewState, _ Request) ViewState {
	s = disableControls(s)
	s.Reports = []ReportBlock{}
	s.Status = MsgGenerating
	return s
}

func (c *Console) fetchGenerate(ctx context.Context, _ Request) (fetched, error) {
	cases, err := c.backend.GenerateTestCases(ctx)
	return fetched{kind: ActionGenerate, cases: cases}, err
}

func finishGenerate(s ViewState, _ Request, res fetched, err error) ViewState {
	s.Controls = enabledControls()
	var shape *backend.ShapeError
	switch {
	case errors.As(err, &shape):
		s.Items = []Item{placeholder(fmt.Sprintf(invalidFormatTemplate, shape.Detail()))}
		s.Status = msgGenerateError(err)
	case err != nil:
		s.Status = msgGenerateError(err)
	case len(res.cases) == 0:
		s.Items = []Item{placeholder(MsgNoTestCases)}
		s.Status = MsgGenerateEmpty
	default:
		items := make([]Item, len(res.cases))
		for i := range res.cases {
			tc := res.cases[i]
			items[i] = Item{Kind: KindTestCase, TestCase: &tc}
		}
		s.Items = items
		s.Status = msgGenerated(len(items))
	}
	return s
}

// Execute

// ExecutionOutcome is the intermediate result of the execute
// pipeline: the execution response, which the report fetch
// extends.
type ExecutionOutcome struct {
	ID     testcase.ID
	Result *testcase.ExecutionResult
	Report *testcase.Report
	Links  testcase.Artifacts
}

func acceptExecute(s ViewState, req Request) error {
	if req.ID == "" {
		return ErrMissingID
	}
	if !s.Controls.Execute {
		return ErrControlDisabled
	}
	return nil
}

func beginExecute(s ViewState, req Request) ViewState {
	s = disableControls(s)
	s.Status = msgExecuting(req.ID)
	return s
}

// runExecution performs the first pipeline step.
func (c *Console) runExecution(ctx context.Context, id testcase.ID) (*ExecutionOutcome, error) {
	result, err := c.backend.ExecuteTestCase(ctx, id)
	if err != nil {
		return nil, &StepError{Step: StepExecute, ID: id, Err: err}
	}
	return &ExecutionOutcome{ID: id, Result: result}, nil
}

// attachReport performs the second pipeline step. It runs only
// after a successful execution.
func (c *Console) attachReport(ctx context.Context, out *ExecutionOutcome) (*ExecutionOutcome, error) {
	report, err := c.backend.GetReport(ctx, out.ID)
	if err != nil {
		return nil, &StepError{Step: StepReport, ID: out.ID, Err: err}
	}
	next := *out
	next.Report = report
	next.Links = c.backend.Artifacts(out.ID)
	return &next, nil
}

func (c *Console) fetchExecute(ctx context.Context, req Request) (fetched, error) {
	out, err := c.runExecution(ctx, req.ID)
	if err != nil {
		return fetched{kind: ActionExecute}, err
	}
	out, err = c.attachReport(ctx, out)
	if err != nil {
		return fetched{kind: ActionExecute}, err
	}
	return fetched{kind: ActionExecute, execution: out}, nil
}

func finishExecute(s ViewState, req Request, res fetched, err error) ViewState {
	s.Controls = enabledControls()
	if err != nil {
		s.Status = msgExecuteError(req.ID, err)
		return s
	}
	out := res.execution
	s.Status = msgExecuted(req.ID, out.Result)
	if i := s.IndexOf(req.ID); i >= 0 {
		s.Items[i].Result = out.Result
	}
	s.Reports = append(s.Reports, ReportBlock{Report: *out.Report, Artifacts: out.Links})
	return s
}

// Orchestrate

func beginOrchestrate(s ViewState, _ Request) ViewState {
	s = disableControls(s)
	s.Reports = []ReportBlock{}
	s.Status = MsgOrchestrating
	return s
}

func (c *Console) fetchOrchestrate(ctx context.Context, _ Request) (fetched, error) {
	batch, err := c.backend.OrchestrateTests(ctx)
	res := fetched{kind: ActionOrchestrate, batch: batch}
	if err == nil {
		res.artifacts = make(map[testcase.ID]testcase.Artifacts, batch.Len())
		for _, r := range batch.Reports {
			res.artifacts[r.TestCaseID] = c.backend.Artifacts(r.TestCaseID)
		}
	}
	return res, err
}

func finishOrchestrate(s ViewState, _ Request, res fetched, err error) ViewState {
	s.Controls = enabledControls()
	var shape *backend.ShapeError
	switch {
	case errors.As(err, &shape):
		s.Items = []Item{placeholder(fmt.Sprintf(invalidFormatTemplate, shape.Detail()))}
		s.Status = msgOrchestrateError(err)
	case err != nil:
		s.Status = msgOrchestrateError(err)
	case res.batch.Len() == 0:
		s.Items = []Item{placeholder(MsgNoOrchestrated)}
		s.Status = MsgOrchestrateEmpty
	default:
		items := make([]Item, res.batch.Len())
		for i := range res.batch.Reports {
			r := res.batch.Reports[i]
			items[i] = Item{Kind: KindOrchestrated, Report: &r, Links: res.artifacts[r.TestCaseID]}
		}
		s.Items = items
		s.Status = msgOrchestrated(len(items))
	}
	return s
}

// Toggle

func acceptToggle(s ViewState, req Request) error {
	if req.Index < 0 || req.Index >= len(s.Items) || !s.Items[req.Index].Toggleable() {
		return fmt.Errorf("%w: index %d", ErrNotToggleable, req.Index)
	}
	return nil
}

func applyToggle(s ViewState, req Request) ViewState {
	s.Items[req.Index].Expanded = !s.Items[req.Index].Expanded
	return s
}
