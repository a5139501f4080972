// Package backendtest provides an in-memory implementation of the
// backend contract for tests. It mirrors the reference service:
// ids are 1-based positions in the last generated batch, reports
// and artifacts exist only after execution.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
}

// Server is a fake backend. Zero-value fields fall back to
// defaults; raw overrides take precedence over state.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	testCases   []map[string]any
	generated   []map[string]any
	execResults map[string]map[string]any
	reports     map[string]map[string]any
	orchestrate []map[string]any
	raw         map[string]string
	failures    map[string]int
	calls       []Call
	gate        map[string]chan struct{}
}

// New starts a fake backend. Close it with Server.Close.
func New() *Server {
	s := &Server{
		execResults: make(map[string]map[string]any),
		reports:     make(map[string]map[string]any),
		raw:         make(map[string]string),
		failures:    make(map[string]int),
		gate:        make(map[string]chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/generate_test_cases", s.handleGenerate)
	r.Post("/execute_test_case/{id}", s.handleExecute)
	r.Get("/get_report/{id}", s.handleReport)
	r.Post("/orchestrate_tests", s.handleOrchestrate)
	r.Get("/report/{file}", s.handleArtifact)

	s.Server = httptest.NewServer(r)
	return s
}

// SetTestCases sets the batch returned by the next generation.
// Entries are raw JSON objects so tests can use any field
// aliases.
func (s *Server) SetTestCases(cases ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testCases = cases
}

// SetExecutionResult sets the execute response for id.
func (s *Server) SetExecutionResult(id string, result map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execResults[id] = result
}

// SetReport stores a report for id, as if it had been executed.
func (s *Server) SetReport(id string, report map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[id] = report
}

// SetOrchestrationResults sets the entries of the orchestrate
// response.
func (s *Server) SetOrchestrationResults(results ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orchestrate = results
}

// SetRawResponse makes path answer with body verbatim.
func (s *Server) SetRawResponse(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[path] = body
}

// FailWith makes path answer with the given status code.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Hold blocks requests to path until the returned func is called.
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gate[path] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns every request received so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
		gate := s.gate[r.URL.Path]
		status, failing := s.failures[r.URL.Path]
		body, hasRaw := s.raw[r.URL.Path]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			http.Error(w, `{"detail":"forced failure"}`, status)
			return
		}
		if hasRaw {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": detail})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cases := make([]map[string]any, len(s.testCases))
	for i, tc := range s.testCases {
		c := make(map[string]any, len(tc)+1)
		for k, v := range tc {
			c[k] = v
		}
		if _, ok := c["id"]; !ok {
			c["id"] = i + 1
		}
		cases[i] = c
	}
	s.generated = cases
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"test_cases": cases})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := strconv.Atoi(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || n < 1 || n > len(s.generated) {
		notFound(w, "Test case not found or not generated yet.")
		return
	}
	tc := s.generated[n-1]

	result, ok := s.execResults[id]
	if !ok {
		result = map[string]any{
			"test_case_id": n,
			"status":       "completed",
			"analysis":     map[string]any{"verdict": "Passed", "reason": "objective met"},
		}
	}

	report := map[string]any{
		"test_case_id":     n,
		"status":           result["status"],
		"analysis":         result["analysis"],
		"objective":        firstOf(tc, "test_objective", "objective", "title"),
		"initial_state":    firstOf(tc, "initial_game_state", "initial_state"),
		"expected_actions": tc["expected_actions"],
		"expected_results": tc["expected_results"],
		"actual_log":       "executed test case " + id,
	}
	if _, stored := s.reports[id]; !stored {
		s.reports[id] = report
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	report, ok := s.reports[id]
	s.mu.Unlock()
	if !ok {
		notFound(w, "Report file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	results := s.orchestrate
	for _, entry := range results {
		if id, ok := entry["test_case_id"]; ok {
			s.reports[fmt.Sprint(id)] = entry
		}
	}
	s.mu.Unlock()
	if results == nil {
		results = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	id, kind, ok := parseArtifactName(file)
	if !ok {
		notFound(w, "File not found")
		return
	}
	s.mu.Lock()
	_, executed := s.reports[id]
	s.mu.Unlock()
	if !executed {
		notFound(w, "File not found")
		return
	}
	switch kind {
	case "screenshot.png":
		w.Header().Set("Content-Type", "image/png")
		w.Write(PNGSignature)
	case "log.txt":
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "log for test case %s\n", id)
	}
}

// PNGSignature is the body served for every screenshot.
var PNGSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func parseArtifactName(file string) (id, kind string, ok bool) {
	rest, found := strings.CutPrefix(file, "test_case_")
	if !found {
		return "", "", false
	}
	for _, k := range []string{"screenshot.png", "log.txt"} {
		if base, cut := strings.CutSuffix(rest, "_"+k); cut && base != "" {
			return base, k, true
		}
	}
	return "", "", false
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}
