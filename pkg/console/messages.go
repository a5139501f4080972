package console

import (
	"fmt"

	"digital.vasic.testconsole/pkg/testcase"
)

// Fixed operator-facing texts.
const (
	MsgGenerating         = "Generating test cases..."
	MsgNoTestCases        = "No test cases generated."
	MsgGenerateEmpty      = "Test case generation completed, but no test cases were returned."
	MsgOrchestrating      = "Orchestrating all tests..."
	MsgNoOrchestrated     = "No orchestrated test results."
	MsgOrchestrateEmpty   = "Orchestration completed, but no test results were returned."
	invalidFormatTemplate = "Invalid response format: %s"
)

func msgGenerated(n int) string {
	return fmt.Sprintf("Successfully generated %d test cases.", n)
}

func msgGenerateError(err error) string {
	return fmt.Sprintf("Error generating test cases: %v", err)
}

func msgExecuting(id testcase.ID) string {
	return fmt.Sprintf("Executing Test Case %s...", id)
}

func msgExecuted(id testcase.ID, r *testcase.ExecutionResult) string {
	return fmt.Sprintf("Test Case %s Result: %s (Verdict: %s)", id, r.Status.OrNA(), r.Verdict())
}

func msgExecuteError(id testcase.ID, err error) string {
	return fmt.Sprintf("Error executing Test Case %s: %v.", id, err)
}

func msgOrchestrated(n int) string {
	return fmt.Sprintf("Orchestration completed for %d test cases.", n)
}

func msgOrchestrateError(err error) string {
	return fmt.Sprintf("Error during orchestration: %v", err)
}
