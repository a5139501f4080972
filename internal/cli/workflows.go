package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/metrics"
	"digital.vasic.testconsole/pkg/render"
	"digital.vasic.testconsole/pkg/testcase"
)

func (a *app) generateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of test cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWorkflow(cmd.Context(), console.Request{Action: console.ActionGenerate}, render.TextOptions{})
		},
	}
}

func (a *app) executeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <test-case-id>",
		Short: "Execute one test case and print its report",
		Long: `Execute a test case on the backend, then fetch and print its report.

The backend must have generated the test case first, e.g. with
"testconsole generate".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := console.Request{Action: console.ActionExecute, ID: testcase.ID(args[0])}
			return a.runWorkflow(cmd.Context(), req, render.TextOptions{HideList: true})
		},
	}
}

func (a *app) orchestrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "orchestrate",
		Short: "Execute every generated test case and print the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWorkflow(cmd.Context(), console.Request{Action: console.ActionOrchestrate}, render.TextOptions{})
		},
	}
}

// runWorkflow dispatches req, prints the resulting state and turns
// a failed or malformed backend exchange into ErrWorkflowFailed.
func (a *app) runWorkflow(ctx context.Context, req console.Request, opts render.TextOptions) error {
	var outcome string
	unsubscribe := a.console.Subscribe(func(ev console.Event) {
		if ev.Phase == console.PhaseFinished {
			outcome = ev.Outcome
		}
	})
	defer unsubscribe()

	s, err := a.console.Dispatch(ctx, req)
	if console.IsRejection(err) {
		return fmt.Errorf("%s: %w", req.Action, err)
	}

	opts.ExpandAll = opts.ExpandAll || a.flags.expand
	if err := a.printState(s, opts); err != nil {
		return err
	}

	switch outcome {
	case metrics.OutcomeFailure, metrics.OutcomeInvalid:
		fmt.Fprintln(a.errOut, s.Status)
		return fmt.Errorf("%s: %w", req.Action, ErrWorkflowFailed)
	}
	return nil
}

func (a *app) printState(s console.ViewState, opts render.TextOptions) error {
	if a.flags.jsonOut {
		return render.WriteJSON(a.out, s, true)
	}
	return render.WriteText(a.out, s, opts)
}
