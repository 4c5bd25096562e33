package main

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Step key.Binding
	Run  key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Run, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Step: key.NewBinding(key.WithKeys("n", "right", "l", " "), key.WithHelp("n", "step")),
	Run:  key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "run to end")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// model is the stepper view: program listing on the left, probabilities on the right.
type model struct {
	runner stepper
	keys   keyMap
	help   help.Model
	height int
	err    error
}

func newModel(runner stepper) model {
	return model{
		runner: runner,
		keys:   defaultKeys,
		help:   help.New(),
	}
}

func (m model) programHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(m.height-6, 4)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			if m.err == nil {
				m.err = m.runner.Step()
			}
		case key.Matches(msg, m.keys.Run):
			if m.err == nil {
				m.err = m.runner.Run()
			}
		}
	}

	return m, nil
}

func (m model) View() string {
	return m.view()
}
