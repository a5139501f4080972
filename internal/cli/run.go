package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/render"
	"digital.vasic.testconsole/pkg/report"
	"digital.vasic.testconsole/pkg/runner"
	"digital.vasic.testconsole/pkg/testcase"
)

func (a *app) runCommand() *cobra.Command {
	var (
		stopOnFailure bool
		reportDir     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate test cases and execute each one in turn",
		Long: `Generate a fresh batch, then execute every test case one after
another and print a result per test case followed by a summary.

Unlike orchestrate, each execution is a separate request, so the run
can stop at the first failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.runWorkflow(ctx, console.Request{Action: console.ActionGenerate}, render.TextOptions{HideList: true}); err != nil {
				return err
			}

			r := runner.NewRunner(a.console,
				runner.WithLogger(a.logger),
				runner.WithStopOnFailure(stopOnFailure),
			)
			results, err := r.RunAll(ctx)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			if err := a.printResults(results); err != nil {
				return err
			}
			if reportDir != "" {
				paths, err := report.SaveRunSummary(report.BuildRunSummary(results, a.client.BaseURL()), reportDir)
				if err != nil {
					return fmt.Errorf("run: %w", err)
				}
				for _, p := range paths {
					fmt.Fprintln(a.errOut, "wrote", p)
				}
			}
			for _, res := range results {
				if res.Failed() {
					return fmt.Errorf("run: %w", ErrWorkflowFailed)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stopOnFailure, "stop-on-failure", false, "stop at the first test case that fails")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "write JSON and Markdown run summaries here")
	return cmd
}

func (a *app) printResults(results []runner.Result) error {
	if a.flags.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Results []runner.Result  `json:"results"`
			Summary testcase.Summary `json:"summary"`
		}{results, runner.Summarize(results)})
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nTEST CASE\tSTATUS\tVERDICT\tDURATION\tERROR")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.ID, res.Status, res.Verdict, res.Duration.Round(time.Millisecond), res.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return render.WriteSummaryText(a.out, runner.Summarize(results))
}
