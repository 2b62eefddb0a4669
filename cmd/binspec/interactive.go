package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Velocidex/ordereddict"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wirebyte/binspec"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type tuiModel struct {
	err    error
	spec   *binspec.Spec
	result *ordereddict.Dict
	schema string
	input  textinput.Model
}

func newTUIModel(schemaName string, spec *binspec.Spec) *tuiModel {
	ti := textinput.New()
	ti.Placeholder = "payload hex, e.g. FF02 4049 0FD0"
	ti.Prompt = "> "
	ti.Width = 64
	ti.Focus()
	return &tuiModel{spec: spec, schema: schemaName, input: ti}
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.decode()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) decode() {
	payload, err := decodeHex(m.input.Value())
	if err != nil {
		m.result = nil
		m.err = fmt.Errorf("payload: %w", err)
		return
	}
	res, err := m.spec.Exec(payload)
	if err != nil {
		m.result = nil
		m.err = err
		return
	}
	m.result = res
	m.err = nil
}

func (m *tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("binspec"))
	b.WriteString(" ")
	b.WriteString(m.schema)
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")

	case m.result != nil:
		width := 0
		for _, k := range m.result.Keys() {
			if len(k) > width {
				width = len(k)
			}
		}
		for _, k := range m.result.Keys() {
			v, _ := m.result.Get(k)
			b.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", width+1, k+":")))
			b.WriteString(" ")
			b.WriteString(valueStyle.Render(fmt.Sprintf("%v", v)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter decode • esc quit"))
	return b.String()
}

func runInteractive(schemaFile string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	spec, err := loadSpec(schemaFile)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newTUIModel(filepath.Base(schemaFile), spec), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
