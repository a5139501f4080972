// Package runner executes every test case of a console's list,
// one after another, with lifecycle hooks around each execution.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/logging"
	"digital.vasic.testconsole/pkg/testcase"
)

// ErrNothingToRun is returned when the list holds no executable
// test case.
var ErrNothingToRun = errors.New("no test cases to execute")

// Executor is the part of the console the runner drives.
type Executor interface {
	State() console.ViewState
	Execute(ctx context.Context, id testcase.ID) (console.ViewState, error)
}

var _ Executor = (*console.Console)(nil)

// Hook is invoked before or after each execution. A pre-hook error
// skips the test case.
type Hook func(ctx context.Context, id testcase.ID) error

// Result is the outcome of one test case.
type Result struct {
	ID       testcase.ID      `json:"id"`
	Status   string           `json:"status"`
	Verdict  string           `json:"verdict"`
	Message  string           `json:"message"`
	Skipped  bool             `json:"skipped,omitempty"`
	Error    string           `json:"error,omitempty"`
	Duration time.Duration    `json:"duration"`
	Report   *testcase.Report `json:"report,omitempty"`
}

// Failed reports whether the execution did not produce a report.
func (r Result) Failed() bool {
	return r.Error != "" || r.Skipped
}

// Runner executes test cases sequentially through an Executor.
type Runner struct {
	exec          Executor
	logger        logging.Logger
	preHooks      []Hook
	postHooks     []Hook
	stopOnFailure bool
}

// NewRunner creates a Runner over exec.
func NewRunner(exec Executor, opts ...Option) *Runner {
	r := &Runner{exec: exec, logger: logging.NullLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll executes every test case currently in the list, in list
// order. The console is single-flight, so executions never overlap.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	var ids []testcase.ID
	for _, it := range r.exec.State().Items {
		if it.HasExecuteControl() {
			ids = append(ids, it.ID())
		}
	}
	if len(ids) == 0 {
		return nil, ErrNothingToRun
	}
	return r.RunSequence(ctx, ids)
}

// RunSequence executes ids in order. It stops early when ctx is
// done or, with WithStopOnFailure, after the first failure.
func (r *Runner) RunSequence(ctx context.Context, ids []testcase.ID) ([]Result, error) {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := r.run(ctx, id)
		if err != nil {
			return results, err
		}
		results = append(results, res)

		if res.Failed() && r.stopOnFailure {
			r.logger.Warn("stopping after failed test case", logging.StringField("test_case_id", string(id)))
			break
		}
	}
	return results, nil
}

func (r *Runner) run(ctx context.Context, id testcase.ID) (Result, error) {
	log := r.logger.WithFields(logging.StringField("test_case_id", string(id)))
	res := Result{ID: id, Status: testcase.NotAvailable, Verdict: testcase.NotAvailable}

	for _, h := range r.preHooks {
		if err := h(ctx, id); err != nil {
			log.Warn("pre-hook failed, skipping", logging.ErrorField(err))
			res.Skipped = true
			res.Error = err.Error()
			return res, nil
		}
	}

	before := len(r.exec.State().Reports)
	start := time.Now()
	s, err := r.exec.Execute(ctx, id)
	res.Duration = time.Since(start)
	if console.IsRejection(err) {
		return res, fmt.Errorf("execute test case %s: %w", id, err)
	}
	res.Message = s.Status

	if block, ok := appendedReport(s, id, before); ok {
		res.Report = &block.Report
		res.Status = block.Report.Status.OrNA()
		res.Verdict = block.Report.Verdict()
	} else {
		res.Error = s.Status
	}

	for _, h := range r.postHooks {
		if err := h(ctx, id); err != nil {
			log.Warn("post-hook failed", logging.ErrorField(err))
		}
	}

	log.Debug("test case finished",
		logging.StringField("verdict", res.Verdict),
		logging.Int64Field("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

// appendedReport returns the block the execution of id added to a
// panel that held before blocks.
func appendedReport(s console.ViewState, id testcase.ID, before int) (console.ReportBlock, bool) {
	if n := len(s.Reports); n > before && s.Reports[n-1].Report.TestCaseID == id {
		return s.Reports[n-1], true
	}
	return console.ReportBlock{}, false
}

// Summarize counts results by verdict.
func Summarize(results []Result) testcase.Summary {
	sum := testcase.Summary{ByVerdict: map[string]int{}, ByStatus: map[string]int{}}
	for _, res := range results {
		sum.Total++
		sum.ByVerdict[res.Verdict]++
		sum.ByStatus[res.Status]++
	}
	return sum
}
