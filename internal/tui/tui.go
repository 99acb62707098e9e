// Package tui is the interactive demo browser: a list of registered
// demos on the left, the rendered result of the selected one on the
// right.
package tui

import (
	"bytes"
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"homesearch/internal/demo"
)

type resultMsg struct {
	id     int
	output string
}

type model struct {
	registry    *demo.Registry
	env         *demo.Env
	demos       []demo.Demo
	selectedIdx int
	output      string
	running     bool
	width       int
	height      int
	quitting    bool
}

func newModel(registry *demo.Registry, env *demo.Env) model {
	return model{
		registry: registry,
		env:      env,
		demos:    registry.All(),
		output:   "Select a demo and press enter to run it.",
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// runSelected executes the highlighted demo off the update loop and
// delivers its rendered output as a message.
func (m model) runSelected() tea.Cmd {
	d := m.demos[m.selectedIdx]
	registry, env := m.registry, m.env
	return func() tea.Msg {
		id := d.Meta().ID
		result, err := registry.RunDemo(context.Background(), id, env)
		var buf bytes.Buffer
		if result != nil {
			result.Display(&buf)
		} else if err != nil {
			fmt.Fprintf(&buf, "demo %d failed: %v\n", id, err)
		}
		return resultMsg{id: id, output: buf.String()}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case resultMsg:
		m.running = false
		m.output = msg.output

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "down", "j":
			if m.selectedIdx < len(m.demos)-1 {
				m.selectedIdx++
			}
		case "enter":
			if !m.running && len(m.demos) > 0 {
				m.running = true
				m.output = "Running..."
				return m, m.runSelected()
			}
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Bye.\n"
	}

	docStyle := lipgloss.NewStyle().Margin(1, 2)
	listStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(m.width/3 - 4)
	detailStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(2*m.width/3 - 4)

	listContent := "Demos\n\n"
	if len(m.demos) == 0 {
		listContent += "No demos registered."
	} else {
		for i, d := range m.demos {
			cursor := " "
			if i == m.selectedIdx {
				cursor = ">"
			}
			meta := d.Meta()
			listContent += fmt.Sprintf("%s %2d. %s\n", cursor, meta.ID, meta.Name)
		}
	}

	detailContent := m.output
	if !m.running && len(m.demos) > 0 {
		detailContent = m.demos[m.selectedIdx].Meta().Description + "\n\n" + m.output
	}

	leftPane := listStyle.Render(listContent)
	rightPane := detailStyle.Render(detailContent)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	help := "\n\n[↑/k] Up | [↓/j] Down | [enter] Run | [q] Quit"

	return docStyle.Render(mainContent + help)
}

// Start runs the demo browser until the user quits.
func Start(registry *demo.Registry, env *demo.Env) error {
	p := tea.NewProgram(newModel(registry, env), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("demo browser failed: %w", err)
	}
	return nil
}
