// Package tui provides small, single-purpose bubbletea models used to drive
// the interactive configuration wizard: one model per prompt, run one after
// another via its own tea.NewProgram.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Selector is an up/down/enter single-choice picker.
type Selector struct {
	placeholder string
	options     []string
	cursor      int
	choice      string
	checked     int
}

func NewSelector(placeholder string, options []string) Selector {
	return Selector{placeholder: placeholder, options: options, checked: -1}
}

func (m Selector) Choice() string { return m.choice }

func (m Selector) Init() tea.Cmd { return nil }

func (m Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.choice = m.options[m.cursor]
			m.checked = m.cursor
			return m, tea.Quit
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Selector) View() string {
	s := fmt.Sprintf("%s\n\n", m.placeholder)
	for i, opt := range m.options {
		checked := "[ ]"
		if m.checked == i {
			checked = "[x]"
		}
		line := fmt.Sprintf("%s %s", checked, opt)
		if m.cursor == i {
			line = "\033[1;32m" + line + "\033[0m"
		}
		s += line + "\n"
	}
	s += "\n" + strings.Repeat("-", 40) + "\nPress enter to choose, q to quit.\n"
	return s
}
