package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/render"
	"digital.vasic.testconsole/pkg/testcase"
)

func (a *app) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <test-case-id>",
		Short: "Print the stored report of an executed test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := testcase.ID(args[0])
			report, err := a.client.GetReport(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("fetching report for test case %s: %w", id, err)
			}
			block := console.ReportBlock{Report: *report, Artifacts: a.client.Artifacts(id)}
			if a.flags.jsonOut {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(block)
			}
			return render.WriteReportText(a.out, block)
		},
	}
}

func (a *app) artifactsCommand() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "artifacts <test-case-id>",
		Short: "Download the screenshot and log of an executed test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := testcase.ID(args[0])
			dir := outDir
			if dir == "" {
				dir = a.cfg.ArtifactsDir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}

			for _, kind := range []testcase.ArtifactKind{testcase.ArtifactScreenshot, testcase.ArtifactLog} {
				data, err := a.client.FetchArtifact(cmd.Context(), id, kind)
				if err != nil {
					return fmt.Errorf("fetching %s of test case %s: %w", kind, id, err)
				}
				path := filepath.Join(dir, testcase.ArtifactFileName(id, kind))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				fmt.Fprintln(a.out, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	return cmd
}
