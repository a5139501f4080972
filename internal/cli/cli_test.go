package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.testconsole/internal/cli"
	"digital.vasic.testconsole/pkg/backend/backendtest"
	"digital.vasic.testconsole/pkg/env"
	"digital.vasic.testconsole/pkg/httpclient"
)

const envPrefix = "TCCLI_"

type result struct {
	out    string
	errOut string
	err    error
}

func run(ctx context.Context, args ...string) result {
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommand(&out, &errOut, env.NewLoaderWithPrefix(envPrefix))
	cmd.SetArgs(append([]string{"--env-file", "testdata-missing.env"}, args...))
	err := cmd.ExecuteContext(ctx)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func newBackend(t *testing.T, n int) *backendtest.Server {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	cases := make([]map[string]any, n)
	for i := range cases {
		cases[i] = map[string]any{
			"test_objective":     "objective " + string(rune('1'+i)),
			"initial_game_state": "menu",
		}
	}
	srv.SetTestCases(cases...)
	return srv
}

func TestGenerate(t *testing.T) {
	srv := newBackend(t, 2)

	r := run(context.Background(), "--backend-url", srv.URL, "generate")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Status: Successfully generated 2 test cases.")
	assert.Contains(t, r.out, "Test Case 1: objective 1")
	assert.Contains(t, r.out, "Test Case 2: objective 2")
}

func TestGenerate_JSON(t *testing.T) {
	srv := newBackend(t, 1)

	r := run(context.Background(), "--backend-url", srv.URL, "--json", "generate")
	require.NoError(t, r.err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.out), &doc))
	assert.Equal(t, "Successfully generated 1 test cases.", doc["status"])
}

func TestGenerate_Failure(t *testing.T) {
	srv := newBackend(t, 1)
	srv.FailWith("/generate_test_cases", 500)

	r := run(context.Background(), "--backend-url", srv.URL, "generate")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "Status: Error generating test cases: HTTP error, status: 500")
	assert.NotContains(t, r.out, "Test Cases:", "a transport failure leaves the list untouched")
	assert.Contains(t, r.errOut, "500")
}

func TestExecute_ReportFailurePrintsStatus(t *testing.T) {
	srv := newBackend(t, 1)
	require.NoError(t, run(context.Background(), "--backend-url", srv.URL, "generate").err)
	srv.FailWith("/get_report/1", 500)

	r := run(context.Background(), "--backend-url", srv.URL, "execute", "1")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "Status: Error executing Test Case 1: HTTP error, status: 500.")
	assert.NotContains(t, r.out, "Report for Test Case 1")
}

func TestRun_GenerateFailure(t *testing.T) {
	srv := newBackend(t, 2)
	srv.FailWith("/generate_test_cases", 502)

	r := run(context.Background(), "--backend-url", srv.URL, "run")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "HTTP error, status: 502")
	assert.NotContains(t, r.out, "TEST CASE")
}

func TestGenerate_InvalidFormat(t *testing.T) {
	srv := newBackend(t, 1)
	srv.SetRawResponse("/generate_test_cases", `{"test_cases": "nope"}`)

	r := run(context.Background(), "--backend-url", srv.URL, "generate")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "Invalid response format")
}

func TestExecute(t *testing.T) {
	srv := newBackend(t, 2)
	require.NoError(t, run(context.Background(), "--backend-url", srv.URL, "generate").err)

	r := run(context.Background(), "--backend-url", srv.URL, "execute", "2")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Status: Test Case 2 Result: completed (Verdict: Passed)")
	assert.Contains(t, r.out, "Report for Test Case 2")
	assert.Contains(t, r.out, "/report/test_case_2_screenshot.png")
	assert.NotContains(t, r.out, "Test Cases:")
}

func TestExecute_Errors(t *testing.T) {
	srv := newBackend(t, 1)

	r := run(context.Background(), "--backend-url", srv.URL, "execute")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "accepts 1 arg")

	r = run(context.Background(), "--backend-url", srv.URL, "execute", "7")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "Error executing Test Case 7: HTTP error, status: 404.")
}

func TestOrchestrate(t *testing.T) {
	srv := newBackend(t, 0)
	srv.SetOrchestrationResults(
		map[string]any{"test_case_id": 1, "status": "completed", "analysis": map[string]any{"verdict": "PASS"}},
		map[string]any{"test_case_id": 2, "status": "completed", "analysis": map[string]any{"verdict": "FAIL"}},
	)

	r := run(context.Background(), "--backend-url", srv.URL, "orchestrate")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Orchestration completed for 2 test cases.")
	assert.Contains(t, r.out, "Summary: 2 test cases")
	assert.Contains(t, r.out, "Verdict PASS: 1")
	assert.Contains(t, r.out, "Verdict FAIL: 1")
}

func TestReport(t *testing.T) {
	srv := newBackend(t, 1)

	r := run(context.Background(), "--backend-url", srv.URL, "report", "1")
	require.Error(t, r.err)
	assert.Equal(t, 404, httpclient.StatusCode(r.err))

	require.NoError(t, run(context.Background(), "--backend-url", srv.URL, "generate").err)
	require.NoError(t, run(context.Background(), "--backend-url", srv.URL, "execute", "1").err)

	r = run(context.Background(), "--backend-url", srv.URL, "report", "1")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Report for Test Case 1")
	assert.Contains(t, r.out, "Objective: objective 1")
	assert.Contains(t, r.out, "Actual Log: executed test case 1")

	r = run(context.Background(), "--backend-url", srv.URL, "--json", "report", "1")
	require.NoError(t, r.err)
	var block map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.out), &block))
	assert.Contains(t, block, "report")
	assert.Contains(t, block, "artifacts")
}

func TestArtifacts(t *testing.T) {
	srv := newBackend(t, 1)
	require.NoError(t, run(context.Background(), "--backend-url", srv.URL, "generate").err)
	require.NoError(t, run(context.Background(), "--backend-url", srv.URL, "execute", "1").err)

	dir := t.TempDir()
	r := run(context.Background(), "--backend-url", srv.URL, "artifacts", "1", "--out", dir)
	require.NoError(t, r.err)

	shot, err := os.ReadFile(filepath.Join(dir, "test_case_1_screenshot.png"))
	require.NoError(t, err)
	assert.Equal(t, backendtest.PNGSignature, shot)

	logText, err := os.ReadFile(filepath.Join(dir, "test_case_1_log.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(logText), "test case 1")
	assert.Contains(t, r.out, filepath.Join(dir, "test_case_1_log.txt"))
}

func TestConfigSources(t *testing.T) {
	srv := newBackend(t, 1)

	t.Run("yaml file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "console.yaml")
		require.NoError(t, os.WriteFile(file, []byte("backend_url: "+srv.URL+"\n"), 0o644))

		r := run(context.Background(), "--config", file, "generate")
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "Successfully generated 1 test cases.")
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(envPrefix+"BACKEND_URL", srv.URL)

		r := run(context.Background(), "generate")
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "Successfully generated 1 test cases.")
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv(envPrefix+"BACKEND_URL", "http://127.0.0.1:1")

		r := run(context.Background(), "--backend-url", srv.URL, "generate")
		require.NoError(t, r.err)
	})

	t.Run("invalid flag value", func(t *testing.T) {
		r := run(context.Background(), "--backend-url", "ftp://example.com", "generate")
		require.Error(t, r.err)
		assert.Contains(t, r.err.Error(), "invalid config")
	})
}

func TestLogging(t *testing.T) {
	srv := newBackend(t, 1)
	logs := t.TempDir()
	const token = "s3cr3t-token-value"

	r := run(context.Background(), "--backend-url", srv.URL, "--logs-dir", logs, "--token", token, "--verbose", "generate")
	require.NoError(t, r.err)

	for _, name := range []string{"console.log", "api_requests.log", "api_responses.log"} {
		data, err := os.ReadFile(filepath.Join(logs, name))
		require.NoError(t, err, name)
		assert.NotContains(t, string(data), token, name)
	}
	assert.NotContains(t, r.errOut, token)
	assert.Contains(t, r.errOut, "workflow started")
}

func TestTUI_RequiresTerminal(t *testing.T) {
	srv := newBackend(t, 1)
	r := run(context.Background(), "--backend-url", srv.URL, "tui")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "needs a terminal")
}

func TestServe(t *testing.T) {
	srv := newBackend(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	r := run(ctx, "--backend-url", srv.URL, "serve", "--listen", "127.0.0.1:0")
	require.NoError(t, r.err)
}

func TestRun(t *testing.T) {
	srv := newBackend(t, 2)

	r := run(context.Background(), "--backend-url", srv.URL, "run")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Successfully generated 2 test cases.")
	assert.Contains(t, r.out, "TEST CASE")
	assert.Contains(t, r.out, "Summary: 2 test cases")
	assert.Contains(t, r.out, "Verdict Passed: 2")
}

func TestRun_Failure(t *testing.T) {
	srv := newBackend(t, 3)
	srv.FailWith("/execute_test_case/1", 500)

	r := run(context.Background(), "--backend-url", srv.URL, "run", "--stop-on-failure")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "Summary: 1 test cases")

	r = run(context.Background(), "--backend-url", srv.URL, "run")
	require.ErrorIs(t, r.err, cli.ErrWorkflowFailed)
	assert.Contains(t, r.out, "Summary: 3 test cases")
	assert.Contains(t, r.out, "Error executing Test Case 1: HTTP error, status: 500.")
}

func TestRun_JSON(t *testing.T) {
	srv := newBackend(t, 1)

	r := run(context.Background(), "--backend-url", srv.URL, "--json", "run")
	require.NoError(t, r.err)

	// The generate state and the results are two JSON documents.
	dec := json.NewDecoder(bytes.NewReader([]byte(r.out)))
	var state, results map[string]any
	require.NoError(t, dec.Decode(&state))
	require.NoError(t, dec.Decode(&results))
	assert.Len(t, results["results"], 1)
}

func TestRun_ReportDir(t *testing.T) {
	srv := newBackend(t, 2)
	dir := t.TempDir()

	r := run(context.Background(), "--backend-url", srv.URL, "run", "--report-dir", dir)
	require.NoError(t, r.err)

	md, err := os.ReadFile(filepath.Join(dir, "latest_run.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| Executed | 2 |")
	assert.Contains(t, r.errOut, "wrote ")
}
