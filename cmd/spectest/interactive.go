package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-spectest/script"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type interactiveModel struct {
	err      error
	runner   *script.Runner
	files    []string
	reports  []*script.Report
	spin     spinner.Model
	selected int
	next     int
	done     bool
	showing  bool
}

func newInteractiveModel(cfg *script.RunConfig, files []string) *interactiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return &interactiveModel{
		runner: script.NewRunner(cfg),
		files:  files,
		spin:   s,
	}
}

type fileDoneMsg struct {
	err    error
	report *script.Report
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.runNext)
}

// runNext executes one script file; Update schedules the next one when the
// result arrives.
func (m *interactiveModel) runNext() tea.Msg {
	report, err := m.runner.RunFile(context.Background(), m.files[m.next])
	return fileDoneMsg{report: report, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.reports)-1 {
				m.selected++
			}

		case "enter":
			if m.done && len(m.reports) > 0 {
				m.showing = !m.showing
			}

		case "esc":
			m.showing = false
		}

	case fileDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, nil
		}
		m.reports = append(m.reports, msg.report)
		m.next++
		if m.next >= len(m.files) {
			m.done = true
			return m, nil
		}
		return m, m.runNext

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wasm-spectest"))
	b.WriteString(fmt.Sprintf(" %d script files\n\n", len(m.files)))

	for i, rep := range m.reports {
		pass, fail, skip := rep.Counts()
		cursor := "  "
		if m.done && i == m.selected {
			cursor = "> "
		}
		verdict := passStyle.Render("ok")
		if fail > 0 {
			verdict = failStyle.Render("FAIL")
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %d/%d/%d\n",
			cursor, verdict, fileStyle.Render(rep.File), pass, fail, skip))
	}

	switch {
	case m.err != nil:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))

	case !m.done:
		b.WriteString(fmt.Sprintf("\n%s running %s\n\n",
			m.spin.View(), filepath.Base(m.files[m.next])))
		b.WriteString(helpStyle.Render("q quit"))

	case m.showing && m.selected < len(m.reports):
		b.WriteString("\n")
		b.WriteString(m.reports[m.selected].Render())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))

	default:
		var pass, fail, skip int
		for _, rep := range m.reports {
			p, f, s := rep.Counts()
			pass += p
			fail += f
			skip += s
		}
		b.WriteString(fmt.Sprintf("\n%d passed, %d failed, %d skipped\n\n", pass, fail, skip))
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • q quit"))
	}

	return b.String()
}

func runInteractive(cfg *script.RunConfig) error {
	files, err := script.ListScripts(cfg.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no script files under %s", cfg.Dir)
	}

	p := tea.NewProgram(newInteractiveModel(cfg, files), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
