// Package backend is the typed client for the test generation
// and execution service. It owns the JSON contract: endpoint
// paths, payload envelopes and shape validation.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"digital.vasic.testconsole/pkg/httpclient"
	"digital.vasic.testconsole/pkg/testcase"
)

// Endpoint paths of the backend contract.
const (
	PathGenerate    = "/generate_test_cases"
	PathExecute     = "/execute_test_case/"
	PathReport      = "/get_report/"
	PathOrchestrate = "/orchestrate_tests"
)

// Client calls the backend through an httpclient.APIClient.
type Client struct {
	api *httpclient.APIClient
}

// NewClient wraps api.
func NewClient(api *httpclient.APIClient) *Client {
	return &Client{api: api}
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// ExecutePath returns the execute endpoint for id.
func ExecutePath(id testcase.ID) string {
	return PathExecute + url.PathEscape(id.String())
}

// ReportPath returns the report endpoint for id.
func ReportPath(id testcase.ID) string {
	return PathReport + url.PathEscape(id.String())
}

// GenerateTestCases asks the backend for a new batch. An empty
// batch is a valid result; a payload without a test_cases array
// is a *ShapeError.
func (c *Client) GenerateTestCases(ctx context.Context) ([]testcase.TestCase, error) {
	resp, err := c.api.Get(ctx, PathGenerate)
	if err != nil {
		return nil, err
	}
	fields, err := decodeObject(PathGenerate, resp.Body)
	if err != nil {
		return nil, err
	}
	raw, ok := fields["test_cases"]
	if !ok || isNull(raw) {
		return nil, &ShapeError{Endpoint: PathGenerate, Field: "test_cases", Reason: "missing"}
	}
	var cases []testcase.TestCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, &ShapeError{Endpoint: PathGenerate, Field: "test_cases", Reason: "not a list of test cases", Err: err}
	}
	if cases == nil {
		cases = []testcase.TestCase{}
	}
	return cases, nil
}

// ExecuteTestCase runs one test case server-side.
func (c *Client) ExecuteTestCase(ctx context.Context, id testcase.ID) (*testcase.ExecutionResult, error) {
	path := ExecutePath(id)
	resp, err := c.api.Post(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := decodeObject(path, resp.Body); err != nil {
		return nil, err
	}
	var result testcase.ExecutionResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, &ShapeError{Endpoint: path, Reason: "invalid execution result", Err: err}
	}
	if result.TestCaseID == "" {
		result.TestCaseID = id
	}
	return &result, nil
}

// GetReport fetches the stored report of an executed test case.
// The report's id defaults to the requested id when the backend
// omits it.
func (c *Client) GetReport(ctx context.Context, id testcase.ID) (*testcase.Report, error) {
	path := ReportPath(id)
	resp, err := c.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	fields, err := decodeObject(path, resp.Body)
	if err != nil {
		return nil, err
	}
	raw, ok := fields["report"]
	if !ok || isNull(raw) {
		return nil, &ShapeError{Endpoint: path, Field: "report", Reason: "missing"}
	}
	var report testcase.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, &ShapeError{Endpoint: path, Field: "report", Reason: "not a report object", Err: err}
	}
	if report.TestCaseID == "" {
		report.TestCaseID = id
	}
	return &report, nil
}

// OrchestrateTests runs the server-selected set of test cases.
// An absent or null results field is an empty batch.
func (c *Client) OrchestrateTests(ctx context.Context) (testcase.Batch, error) {
	resp, err := c.api.Post(ctx, PathOrchestrate)
	if err != nil {
		return testcase.Batch{}, err
	}
	fields, err := decodeObject(PathOrchestrate, resp.Body)
	if err != nil {
		return testcase.Batch{}, err
	}
	raw, ok := fields["results"]
	if !ok || isNull(raw) {
		return testcase.Batch{Reports: []testcase.Report{}}, nil
	}
	var reports []testcase.Report
	if err := json.Unmarshal(raw, &reports); err != nil {
		return testcase.Batch{}, &ShapeError{Endpoint: PathOrchestrate, Field: "results", Reason: "not a list of reports", Err: err}
	}
	if reports == nil {
		reports = []testcase.Report{}
	}
	return testcase.Batch{Reports: reports}, nil
}

// Artifacts returns the artifact URLs for id.
func (c *Client) Artifacts(id testcase.ID) testcase.Artifacts {
	return testcase.ArtifactsFor(c.BaseURL(), id)
}

// FetchArtifact downloads one artifact file.
func (c *Client) FetchArtifact(ctx context.Context, id testcase.ID, kind testcase.ArtifactKind) ([]byte, error) {
	resp, err := c.api.Get(ctx, testcase.ArtifactPath(id, kind))
	if err != nil {
		return nil, fmt.Errorf("fetch %s of test case %s: %w", kind, id, err)
	}
	return resp.Body, nil
}

// FetchScreenshot downloads the PNG screenshot of a test case.
func (c *Client) FetchScreenshot(ctx context.Context, id testcase.ID) ([]byte, error) {
	return c.FetchArtifact(ctx, id, testcase.ArtifactScreenshot)
}

// FetchLog downloads the execution log of a test case.
func (c *Client) FetchLog(ctx context.Context, id testcase.ID) ([]byte, error) {
	return c.FetchArtifact(ctx, id, testcase.ArtifactLog)
}

func decodeObject(endpoint string, body []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, &ShapeError{Endpoint: endpoint, Reason: "payload is not a JSON object", Err: err}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
