// Package tui is the interactive terminal front-end of the test
// console.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"digital.vasic.testconsole/pkg/console"
)

// Run starts the terminal console and blocks until the operator
// quits or ctx is done.
func Run(ctx context.Context, con *console.Console) error {
	m := New(ctx, con)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// stateMsg carries a snapshot published by the console.
type stateMsg console.ViewState

// dispatchedMsg reports a finished dispatch.
type dispatchedMsg struct {
	state console.ViewState
	err   error
}

// Model is the bubbletea model of the terminal console.
type Model struct {
	ctx         context.Context
	console     *console.Console
	updates     chan console.ViewState
	unsubscribe func()

	state    console.ViewState
	selected int
	busy     bool
	lastErr  error

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// New creates a model bound to con. Call Close to release the
// console subscription.
func New(ctx context.Context, con *console.Console) *Model {
	updates := make(chan console.ViewState, 16)
	unsubscribe := con.Subscribe(func(ev console.Event) {
		select {
		case updates <- ev.State:
		default:
		}
	})
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		ctx:         ctx,
		console:     con,
		updates:     updates,
		unsubscribe: unsubscribe,
		state:       con.State(),
		spinner:     sp,
		viewport:    viewport.New(0, 0),
	}
}

// Close unsubscribes from the console.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// State returns the last state the model rendered.
func (m *Model) State() console.ViewState { return m.state }

// Selected returns the cursor position.
func (m *Model) Selected() int { return m.selected }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), m.spinner.Tick)
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.updates:
			return stateMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) dispatch(req console.Request) tea.Cmd {
	return func() tea.Msg {
		s, err := m.console.Dispatch(m.ctx, req)
		return dispatchedMsg{state: s, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height/2-4, 3)
		m.ready = true
		m.refreshViewport()
	case stateMsg:
		m.setState(console.ViewState(msg))
		return m, m.listen()
	case dispatchedMsg:
		m.lastErr = msg.err
		m.setState(msg.state)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
			m.refreshViewport()
		}
	case key.Matches(msg, keys.Down):
		if m.selected < len(m.state.Items)-1 {
			m.selected++
			m.refreshViewport()
		}
	case key.Matches(msg, keys.PageUp), key.Matches(msg, keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	case key.Matches(msg, keys.Generate):
		if m.state.Controls.Generate {
			return m.dispatch(console.Request{Action: console.ActionGenerate})
		}
	case key.Matches(msg, keys.Orchestrate):
		if m.state.Controls.Orchestrate {
			return m.dispatch(console.Request{Action: console.ActionOrchestrate})
		}
	case key.Matches(msg, keys.Execute):
		if m.state.ExecuteEnabled(m.selected) {
			id := m.state.Items[m.selected].ID()
			return m.dispatch(console.Request{Action: console.ActionExecute, ID: id})
		}
	case key.Matches(msg, keys.Toggle):
		if m.selected < len(m.state.Items) && m.state.Items[m.selected].Toggleable() {
			return m.dispatch(console.Request{Action: console.ActionToggle, Index: m.selected})
		}
	}
	return nil
}

func (m *Model) setState(s console.ViewState) {
	m.state = s
	m.busy = !s.Controls.Idle()
	if m.selected >= len(s.Items) {
		m.selected = max(len(s.Items)-1, 0)
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.detailContent())
}

// detailContent renders the selected item's details followed by
// the report panel.
func (m *Model) detailContent() string {
	var b strings.Builder
	if m.selected < len(m.state.Items) {
		it := m.state.Items[m.selected]
		if it.Expanded {
			for _, d := range it.Details() {
				fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(d.Label+":"), d.Value)
			}
			b.WriteString("\n")
		}
	}
	for _, r := range m.state.Reports {
		b.WriteString(headerStyle.Render(r.Title()) + "\n")
		for _, d := range r.Details() {
			value := d.Value
			if d.Label == "Verdict" {
				value = verdictStyle(value).Render(value)
			}
			fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(d.Label+":"), value)
		}
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Screenshot:"), r.Artifacts.Screenshot)
		fmt.Fprintf(&b, "  %s %s\n\n", labelStyle.Render("Log:"), r.Artifacts.Log)
	}
	return b.String()
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading console..."
	}

	title := titleStyle.Render("Test Console")

	status := m.state.Status
	style := statusStyle
	if strings.HasPrefix(status, "Error") {
		style = errorStatusStyle
	}
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	statusLine := style.Render(truncate(status, m.width))

	list := m.renderList()
	details := paneStyle.Width(max(m.width-2, 10)).Render(m.viewport.View())

	helpParts := make([]string, 0, len(keys.help()))
	for _, k := range keys.help() {
		h := k.Help()
		helpParts = append(helpParts, h.Key+" "+h.Desc)
	}
	help := helpStyle.Render(truncate(strings.Join(helpParts, " • "), m.width))

	return lipgloss.JoinVertical(lipgloss.Left, title, statusLine, "", list, details, help)
}

func (m *Model) renderList() string {
	if len(m.state.Items) == 0 {
		return placeholderStyle.Render("Press g to generate test cases or o to orchestrate.")
	}
	lineWidth := max(m.width-2, 10)
	lines := make([]string, 0, len(m.state.Items))
	for i, it := range m.state.Items {
		if it.Kind == console.KindPlaceholder {
			lines = append(lines, placeholderStyle.Render(truncate(it.Summary(), lineWidth)))
			continue
		}
		marker := "▸"
		if it.Expanded {
			marker = "▾"
		}
		line := truncate(fmt.Sprintf("%s %s", marker, it.Summary()), lineWidth)
		if i == m.selected {
			lines = append(lines, selectedStyle.Width(lineWidth).Render(line))
		} else {
			lines = append(lines, itemStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}
