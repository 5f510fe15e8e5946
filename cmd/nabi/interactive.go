package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/native-abi/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// styled is set when stdout is a terminal.
var styled bool

func paint(st lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return st.Render(s)
}

type modelState int

const (
	stateSelect modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	s        *session
	result   string
	exports  []export
	input    textinput.Model
	selected int
	state    modelState
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(s *session) *interactiveModel {
	var callable []export
	for _, e := range s.exports() {
		// Methods need a receiver the TUI cannot build.
		if e.kind != "method" {
			callable = append(callable, e)
		}
	}
	return &interactiveModel{
		s:       s,
		exports: callable,
		state:   stateSelect,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(m.exports)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelect:
				if len(m.exports) == 0 {
					return m, nil
				}
				m.input = textinput.New()
				m.input.Prompt = "args: "
				m.input.Placeholder = "space separated, e.g. 0 3"
				m.input.Width = 40
				m.input.Focus()
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.callExport

			case stateShowResult:
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}
			return m, nil

		case "esc":
			switch m.state {
			case stateInputArgs, stateShowResult:
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}
			return m, nil
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) callExport() tea.Msg {
	e := m.exports[m.selected]
	out, err := m.s.call(e.target(), parseArgs(strings.Fields(m.input.Value())))
	if err != nil {
		return callResultMsg{err: err}
	}
	defer func() { _ = m.s.h.Drop(out) }()

	str, err := m.s.h.String(out)
	if err != nil {
		return callResultMsg{err: err}
	}
	if inst, ok := out.(*value.Instance); ok {
		items, err := m.s.h.Collect(inst)
		if err == nil && len(items) > 0 {
			str += " = " + value.Format(value.List(items))
			_ = m.s.h.Drop(value.List(items))
		}
	}
	return callResultMsg{result: str}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("nabi"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.s.h.Modules(), ", "))
	b.WriteString("\n\n")

	if len(m.exports) == 0 {
		b.WriteString("No callable exports.\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	e := m.exports[m.selected]
	switch m.state {
	case stateSelect:
		b.WriteString("Select an export to call:\n\n")
		for i, x := range m.exports {
			line := fmt.Sprintf("%-7s %s", x.kind, x.target())
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + typeStyle.Render(fmt.Sprintf("%-7s", x.kind)) + " " + funcStyle.Render(x.target()))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(e.target())))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(e.target())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(s *session) error {
	p := tea.NewProgram(newInteractiveModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
