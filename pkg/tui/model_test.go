package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.testconsole/pkg/backend"
	"digital.vasic.testconsole/pkg/backend/backendtest"
	"digital.vasic.testconsole/pkg/console"
	"digital.vasic.testconsole/pkg/httpclient"
)

func newModel(t *testing.T) (*Model, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	con := console.New(backend.NewClient(httpclient.NewAPIClient(srv.URL)))
	m := New(context.Background(), con)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, srv
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting dispatch back into the model.
func press(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	require.NotNil(t, cmd, "key %q produced no command", k.String())
	m.Update(cmd())
}

func seed(srv *backendtest.Server, n int) {
	cases := make([]map[string]any, n)
	for i := range cases {
		cases[i] = map[string]any{
			"test_objective":     fmt.Sprintf("objective %d", i+1),
			"initial_game_state": "menu",
		}
	}
	srv.SetTestCases(cases...)
}

func TestModel_ViewBeforeSize(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()
	m := New(context.Background(), console.New(backend.NewClient(httpclient.NewAPIClient(srv.URL))))
	defer m.Close()
	assert.Equal(t, "Loading console...", m.View())
}

func TestModel_EmptyView(t *testing.T) {
	m, _ := newModel(t)
	v := m.View()
	assert.Contains(t, v, "Test Console")
	assert.Contains(t, v, "Press g to generate")
	assert.Contains(t, v, "q quit")
}

func TestModel_Generate(t *testing.T) {
	m, srv := newModel(t)
	seed(srv, 2)

	press(t, m, runes("g"))

	s := m.State()
	require.Len(t, s.Items, 2)
	assert.Equal(t, "Successfully generated 2 test cases.", s.Status)
	v := m.View()
	assert.Contains(t, v, "Successfully generated 2 test cases.")
	assert.Contains(t, v, "Test Case 1: objective 1")
	assert.Contains(t, v, "Test Case 2: objective 2")
}

func TestModel_Navigation(t *testing.T) {
	m, srv := newModel(t)
	seed(srv, 3)
	press(t, m, runes("g"))

	m.Update(runes("k"))
	assert.Equal(t, 0, m.Selected())

	m.Update(runes("j"))
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.Selected())

	m.Update(runes("j"))
	assert.Equal(t, 2, m.Selected())

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.Selected())
}

func TestModel_ToggleAndExecute(t *testing.T) {
	m, srv := newModel(t)
	seed(srv, 2)
	press(t, m, runes("g"))
	m.Update(runes("j"))

	press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	s := m.State()
	assert.False(t, s.Items[0].Expanded)
	assert.True(t, s.Items[1].Expanded)
	assert.Contains(t, m.detailContent(), "Initial State:")

	press(t, m, runes("x"))
	s = m.State()
	assert.Equal(t, "Test Case 2 Result: completed (Verdict: Passed)", s.Status)
	require.Len(t, s.Reports, 1)
	assert.Contains(t, m.detailContent(), "Report for Test Case 2")
	assert.Contains(t, m.detailContent(), "test_case_2_screenshot.png")

	press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.State().Items[1].Expanded)
}

func TestModel_IgnoredKeys(t *testing.T) {
	m, _ := newModel(t)

	_, cmd := m.Update(runes("x"))
	assert.Nil(t, cmd, "execute with an empty list")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd, "toggle with an empty list")
}

func TestModel_PlaceholderNotActionable(t *testing.T) {
	m, _ := newModel(t)
	press(t, m, runes("g"))

	s := m.State()
	require.Len(t, s.Items, 1)
	assert.Equal(t, console.KindPlaceholder, s.Items[0].Kind)

	_, cmd := m.Update(runes("x"))
	assert.Nil(t, cmd)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), console.MsgNoTestCases)
}

func TestModel_Orchestrate(t *testing.T) {
	m, srv := newModel(t)
	srv.SetOrchestrationResults(map[string]any{
		"test_case_id":   1,
		"status":         "completed",
		"test_objective": "open menu",
		"analysis":       map[string]any{"verdict": "PASS"},
	})

	press(t, m, runes("o"))

	s := m.State()
	require.Len(t, s.Items, 1)
	assert.Equal(t, "Orchestration completed for 1 test cases.", s.Status)
	assert.Contains(t, m.View(), "Test Case 1: open menu - Status: completed (Verdict: PASS)")

	_, cmd := m.Update(runes("x"))
	assert.Nil(t, cmd, "orchestrated items have no execute control")
}

func TestModel_ErrorStatus(t *testing.T) {
	m, srv := newModel(t)
	srv.FailWith("/generate_test_cases", 500)

	press(t, m, runes("g"))
	assert.Contains(t, m.State().Status, "500")
	assert.True(t, m.State().Controls.Idle())
	assert.False(t, m.busy)
}

func TestModel_BusyWhileDisabled(t *testing.T) {
	m, _ := newModel(t)
	s := console.NewViewState()
	s.Controls = console.Controls{}
	s.Status = console.MsgGenerating

	_, cmd := m.Update(stateMsg(s))
	assert.NotNil(t, cmd, "listening continues after a state update")
	assert.True(t, m.busy)

	_, cmd = m.Update(runes("g"))
	assert.Nil(t, cmd, "generate is disabled while busy")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 10))

	out := truncate("Test Case 1: 日本語のテストケース", 16)
	assert.LessOrEqual(t, runewidth.StringWidth(out), 16)
	assert.Contains(t, out, "…")
}

func TestVerdictStyle(t *testing.T) {
	assert.Equal(t, passStyle.GetForeground(), verdictStyle("pass").GetForeground())
	assert.Equal(t, failStyle.GetForeground(), verdictStyle("Failed").GetForeground())
	assert.Equal(t, labelStyle.GetForeground(), verdictStyle("N/A").GetForeground())
}
