package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompt is a single-line text field, one step of the confgen wizard.
type Prompt struct {
	label string
	input textinput.Model
}

func NewPrompt(label, placeholder, initial string) *Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(initial)
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60
	return &Prompt{label: label, input: ti}
}

func (m *Prompt) Value() string { return m.input.Value() }

func (m *Prompt) Init() tea.Cmd { return textinput.Blink }

func (m *Prompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m, tea.Quit
		case "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Prompt) View() string {
	return m.label + "\n\n" + m.input.View() + "\n\n(enter to continue)\n"
}
