// Package confirm implements the interactive yes/no prompt the Planner
// calls before an ambiguous mutation, such as emptying a directory Dotter
// created. It is a condensed single-purpose Bubble Tea program — no
// list/table/multi-select screens, just the one prompt.
package confirm

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Prompter asks a single yes/no question on the terminal and implements
// plan.Confirmer.
type Prompter struct {
	// Auto, when non-nil, short-circuits every Confirm with its value
	// instead of launching the TUI (used for --noconfirm).
	Auto *bool
}

type model struct {
	prompt   string
	answered bool
	yes      bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.answered, m.yes = true, true
		return m, tea.Quit
	case "n", "N", "esc", "ctrl+c":
		m.answered, m.yes = true, false
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	box := titleStyle.Render(m.prompt)
	help := mutedStyle.Render("press ") + helpKeyStyle.Render("y") + mutedStyle.Render("/yes  ") +
		helpKeyStyle.Render("n") + mutedStyle.Render("/no")
	return fmt.Sprintf("%s\n\n%s\n", box, help)
}

// Confirm blocks on a single y/n answer. Auto, when set, answers without
// drawing anything.
func (p *Prompter) Confirm(prompt string) bool {
	if p.Auto != nil {
		return *p.Auto
	}

	program := tea.NewProgram(model{prompt: prompt})
	final, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "confirm prompt failed, defaulting to no: %v\n", err)
		return false
	}
	return final.(model).yes
}
